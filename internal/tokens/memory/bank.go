// Package memory implements tokens.TransferPort over in-process balances.
// Delegated transfers follow the Permit2 signature-transfer rules: a typed
// permit signed by the owner, an unordered single-use nonce and a deadline.
package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/tokens"
)

var _ tokens.TransferPort = (*Bank)(nil)

var ErrZeroAddress = errors.New("zero address")

type balanceKey struct {
	asset  common.Address
	holder common.Address
}

type Bank struct {
	mu       sync.RWMutex
	balances map[balanceKey]uint256.Int
	nonces   nonceBitmaps

	domain   tokens.Domain
	verifier tokens.Verifier
	now      func() time.Time
}

type Option func(*Bank)

// WithVerifier replaces the default ECDSA signature verifier.
func WithVerifier(v tokens.Verifier) Option {
	return func(b *Bank) {
		if v != nil {
			b.verifier = v
		}
	}
}

// WithClock overrides the time source used for permit deadlines.
func WithClock(now func() time.Time) Option {
	return func(b *Bank) {
		if now != nil {
			b.now = now
		}
	}
}

func New(domain tokens.Domain, opts ...Option) *Bank {
	b := &Bank{
		balances: make(map[balanceKey]uint256.Int),
		nonces:   make(nonceBitmaps),
		domain:   domain,
		verifier: tokens.ECDSAVerifier{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Domain returns the signing domain permits must be produced for.
func (b *Bank) Domain() tokens.Domain { return b.domain }

// Mint credits amount of asset to holder out of thin air.
func (b *Bank) Mint(asset, holder common.Address, amount *uint256.Int) error {
	if holder == (common.Address{}) {
		return fmt.Errorf("mint: %w", ErrZeroAddress)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := balanceKey{asset: asset, holder: holder}
	cur := b.balances[key]

	next, overflow := new(uint256.Int).AddOverflow(&cur, tokens.OrZero(amount))
	if overflow {
		return fmt.Errorf("mint: balance overflow")
	}

	b.balances[key] = *next

	return nil
}

func (b *Bank) BalanceOf(asset, holder common.Address) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bal := b.balances[balanceKey{asset: asset, holder: holder}]

	return bal.Clone()
}

func (b *Bank) Transfer(asset, from, to common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.move(asset, from, to, tokens.OrZero(amount))
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	return nil
}

// TransferFrom validates the permit and signature, consumes the nonce and
// moves the requested amount. Nothing changes unless every check passes.
func (b *Bank) TransferFrom(
	owner, spender common.Address,
	permit tokens.Permit,
	details tokens.TransferDetails,
	signature []byte,
) error {
	requested := tokens.OrZero(details.RequestedAmount)
	nonce := tokens.OrZero(permit.Nonce)

	if deadline := tokens.OrZero(permit.Deadline); deadline.Lt(uint256.NewInt(uint64(b.now().Unix()))) {
		return fmt.Errorf("transfer from: %w", tokens.Fail(tokens.ErrPermitExpired))
	}

	if requested.Gt(tokens.OrZero(permit.Permitted.Amount)) {
		return fmt.Errorf("transfer from: %w", tokens.Fail(tokens.ErrAmountExceedsPermit))
	}

	err := b.verifier.Verify(owner, permit.Digest(b.domain, spender), signature)
	if err != nil {
		return fmt.Errorf("transfer from: %w", tokens.Fail(err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nonces.used(owner, nonce) {
		return fmt.Errorf("transfer from: %w", tokens.Fail(tokens.ErrNonceUsed))
	}

	err = b.move(permit.Permitted.Token, owner, details.To, requested)
	if err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}

	b.nonces.consume(owner, nonce)

	return nil
}

// move must be called with b.mu held for writing.
func (b *Bank) move(asset, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return tokens.Fail(ErrZeroAddress)
	}

	fromKey := balanceKey{asset: asset, holder: from}
	toKey := balanceKey{asset: asset, holder: to}

	fromBal := b.balances[fromKey]
	if fromBal.Lt(amount) {
		return tokens.Fail(tokens.ErrInsufficientBalance)
	}

	if from == to {
		return nil
	}

	toBal := b.balances[toKey]

	credited, overflow := new(uint256.Int).AddOverflow(&toBal, amount)
	if overflow {
		return tokens.Fail(errors.New("recipient balance overflow"))
	}

	b.balances[fromKey] = *new(uint256.Int).Sub(&fromBal, amount)
	b.balances[toKey] = *credited

	return nil
}
