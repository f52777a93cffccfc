package treasury

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// Deposit pulls amount of asset from caller into the treasury and adds it to
// the caller's deposit total.
func (t *Treasury) Deposit(caller, asset common.Address, amount *uint256.Int) error {
	amount = tokens.OrZero(amount)

	return t.DepositVia(caller, asset, amount, func() error {
		return t.port.Transfer(asset, caller, t.address, amount)
	})
}

// DepositVia accounts a deposit whose funds movement is performed by pull,
// e.g. a permit-based transfer from a player straight into the treasury.
// pull runs with the treasury locked; the deposit total only changes when
// pull succeeds.
func (t *Treasury) DepositVia(caller, asset common.Address, amount *uint256.Int, pull func() error) error {
	amount = tokens.OrZero(amount)

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.check(caller, asset, amount)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	key := statsKey{caller: caller, asset: asset}
	cur := t.stats[key]

	total, overflow := new(uint256.Int).AddOverflow(&cur.deposits, amount)
	if overflow {
		return fmt.Errorf("deposit: %w", ErrAmountOverflow)
	}

	err = pull()
	if err != nil {
		if !errors.Is(err, tokens.ErrTransferFailed) {
			err = tokens.Fail(err)
		}
		return fmt.Errorf("deposit: %w", err)
	}

	cur.deposits = *total
	t.stats[key] = cur

	t.emitter.Emit(events.TokensDeposited{Caller: caller, Asset: asset, Amount: amount.Clone()})

	return nil
}
