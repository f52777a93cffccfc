package treasury

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// Withdraw pays amount of asset from the treasury to recipient on behalf of
// caller and adds it to the caller's withdrawal total.
func (t *Treasury) Withdraw(caller, asset common.Address, amount *uint256.Int, recipient common.Address) error {
	amount = tokens.OrZero(amount)

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.check(caller, asset, amount)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	if t.port.BalanceOf(asset, t.address).Lt(amount) {
		return fmt.Errorf("withdraw: %w", ErrInsufficientTreasuryBalance)
	}

	key := statsKey{caller: caller, asset: asset}
	cur := t.stats[key]

	total, overflow := new(uint256.Int).AddOverflow(&cur.withdrawals, amount)
	if overflow {
		return fmt.Errorf("withdraw: %w", ErrAmountOverflow)
	}

	err = t.port.Transfer(asset, t.address, recipient, amount)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	cur.withdrawals = *total
	t.stats[key] = cur

	t.emitter.Emit(events.TokensWithdrawn{
		Caller:    caller,
		Recipient: recipient,
		Asset:     asset,
		Amount:    amount.Clone(),
	})

	return nil
}
