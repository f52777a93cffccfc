// Package betting runs the wager lifecycle of a rock/paper/scissors game on
// top of the treasury: a bet is placed with a signed permit, stays pending,
// and is settled exactly once by the owner or an operator.
//
// Every mutation takes the engine lock for its whole duration and performs
// at most one treasury operation while holding it (lock order: engine,
// treasury, token port), so concurrent callers observe a serial history.
package betting

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/settlement"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// Ledger is the part of the treasury the engine needs.
type Ledger interface {
	Address() common.Address
	DepositVia(caller, asset common.Address, amount *uint256.Int, pull func() error) error
	Withdraw(caller, asset common.Address, amount *uint256.Int, recipient common.Address) error
}

type Config struct {
	// Address identifies the engine as treasury caller and permit spender.
	Address common.Address
	Owner   common.Address
	Params  settlement.Params
}

type Engine struct {
	mu sync.RWMutex

	cfg     Config
	ledger  Ledger
	port    tokens.TransferPort
	emitter events.Emitter
	entropy io.Reader
	now     func() time.Time

	live      bool
	maxBet    map[common.Address]uint256.Int
	operators map[common.Address]bool
	bets      []*record
	stats     settlement.Stats
}

type Option func(*Engine)

// WithEntropy replaces crypto/rand as the source of server seeds.
func WithEntropy(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.entropy = r
		}
	}
}

// WithStats starts the engine from previously captured statistics.
func WithStats(s settlement.Stats) Option {
	return func(e *Engine) { e.stats = s }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(cfg Config, ledger Ledger, port tokens.TransferPort, emitter events.Emitter, opts ...Option) (*Engine, error) {
	err := cfg.Params.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		ledger:    ledger,
		port:      port,
		emitter:   events.Or(emitter),
		entropy:   rand.Reader,
		now:       time.Now,
		maxBet:    make(map[common.Address]uint256.Int),
		operators: make(map[common.Address]bool),
		stats:     settlement.NewStats(cfg.Params),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

func (e *Engine) Address() common.Address { return e.cfg.Address }

func (e *Engine) Owner() common.Address { return e.cfg.Owner }

// Bet returns a copy of the bet with the given id.
func (e *Engine) Bet(id uint64) (Bet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if id >= uint64(len(e.bets)) {
		return Bet{}, ErrBetNotFound
	}

	return e.bets[id].view(), nil
}

func (e *Engine) BetCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return uint64(len(e.bets))
}

// Stats returns a snapshot of the explosion statistics.
func (e *Engine) Stats() settlement.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.stats
}

// ExplosionRate is the current adaptive explosion rate in basis points.
func (e *Engine) ExplosionRate() uint64 {
	return e.Stats().ExplosionRateBps
}

// GlobalExplosionRate is the realized explosion frequency in basis points.
func (e *Engine) GlobalExplosionRate() uint64 {
	return e.Stats().GlobalExplosionRateBps()
}

func (e *Engine) IsLive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.live
}

func (e *Engine) MaxBetAmount(asset common.Address) *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := e.maxBet[asset]

	return v.Clone()
}

// IsOperator reports whether addr may settle bets. The owner always can.
func (e *Engine) IsOperator(addr common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.isOperator(addr)
}

func (e *Engine) isOperator(addr common.Address) bool {
	return addr == e.cfg.Owner || e.operators[addr]
}
