// Package treasury is the pooled custodial ledger shared by every game.
//
// Authorized callers deposit and withdraw accepted assets and the treasury
// keeps per (caller, asset) totals. The owner additionally has
// EmergencyWithdraw, an intentional escape hatch that skips every
// authorization check and all accounting. Because of it (and because anyone
// can send tokens straight to the treasury address) the physical balance is
// not expected to match the sum of GameStats.
package treasury

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

type Treasury struct {
	mu       sync.RWMutex
	address  common.Address
	registry *access.Registry
	port     tokens.TransferPort
	stats    map[statsKey]gameStats
	emitter  events.Emitter
}

// New returns a treasury custodying funds at address. Funds move through port.
func New(address common.Address, registry *access.Registry, port tokens.TransferPort, emitter events.Emitter) *Treasury {
	return &Treasury{
		address:  address,
		registry: registry,
		port:     port,
		stats:    make(map[statsKey]gameStats),
		emitter:  events.Or(emitter),
	}
}

func (t *Treasury) Address() common.Address { return t.address }

func (t *Treasury) Registry() *access.Registry { return t.registry }

// GameStats returns the totals for (caller, asset); zero when never used.
func (t *Treasury) GameStats(caller, asset common.Address) GameStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.stats[statsKey{caller: caller, asset: asset}].snapshot()
}

// Balance returns what the treasury physically holds of asset.
func (t *Treasury) Balance(asset common.Address) *uint256.Int {
	return t.port.BalanceOf(asset, t.address)
}

// EmergencyWithdraw lets the owner move any amount of any asset out of the
// treasury. It deliberately bypasses the authorized-caller and accepted-token
// checks and leaves GameStats untouched.
func (t *Treasury) EmergencyWithdraw(sender, asset common.Address, amount *uint256.Int, recipient common.Address) error {
	if sender != t.registry.Owner() {
		return fmt.Errorf("emergency withdraw: %w", access.ErrUnauthorized)
	}

	amount = tokens.OrZero(amount)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port.BalanceOf(asset, t.address).Lt(amount) {
		return fmt.Errorf("emergency withdraw: %w", ErrInsufficientTreasuryBalance)
	}

	err := t.port.Transfer(asset, t.address, recipient, amount)
	if err != nil {
		return fmt.Errorf("emergency withdraw: %w", err)
	}

	slog.Warn("treasury emergency withdraw",
		"asset", asset.Hex(), "amount", amount.Dec(), "recipient", recipient.Hex())

	t.emitter.Emit(events.EmergencyWithdrawn{Asset: asset, Amount: amount.Clone(), Recipient: recipient})

	return nil
}

// check must be called with t.mu held.
func (t *Treasury) check(caller, asset common.Address, amount *uint256.Int) error {
	if !t.registry.IsAuthorized(caller) {
		return ErrNotAuthorizedCaller
	}

	if !t.registry.IsAccepted(asset) {
		return ErrTokenNotAccepted
	}

	if amount.IsZero() {
		return ErrZeroAmount
	}

	return nil
}
