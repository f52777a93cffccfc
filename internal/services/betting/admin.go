package betting

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// SetLive opens or closes the game for new bets. Pending bets can still be
// settled while the game is closed.
func (e *Engine) SetLive(sender common.Address, live bool) error {
	if sender != e.cfg.Owner {
		return fmt.Errorf("set live: %w", access.ErrUnauthorized)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.live = live
	e.emitter.Emit(events.GameLiveToggled{Live: live})

	return nil
}

// ToggleLive flips the live flag and returns the new value.
func (e *Engine) ToggleLive(sender common.Address) (bool, error) {
	if sender != e.cfg.Owner {
		return false, fmt.Errorf("toggle live: %w", access.ErrUnauthorized)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.live = !e.live
	e.emitter.Emit(events.GameLiveToggled{Live: e.live})

	return e.live, nil
}

// SetMaxBetAmount sets the ceiling on the permitted amount of a bet in asset.
// An asset without a ceiling accepts no bets.
func (e *Engine) SetMaxBetAmount(sender, asset common.Address, amount *uint256.Int) error {
	if sender != e.cfg.Owner {
		return fmt.Errorf("set max bet amount: %w", access.ErrUnauthorized)
	}

	amount = tokens.OrZero(amount)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxBet[asset] = *amount
	e.emitter.Emit(events.MaxBetAmountSet{Asset: asset, Amount: amount.Clone()})

	return nil
}

// SetOperator grants or revokes the right to settle bets.
func (e *Engine) SetOperator(sender, operator common.Address, enabled bool) error {
	if sender != e.cfg.Owner {
		return fmt.Errorf("set operator: %w", access.ErrUnauthorized)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if enabled {
		e.operators[operator] = true
	} else {
		delete(e.operators, operator)
	}

	e.emitter.Emit(events.OperatorSet{Operator: operator, Enabled: enabled})

	return nil
}
