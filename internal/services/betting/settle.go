package betting

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/services/settlement"
)

// SettleBet resolves a pending bet. Only the owner or an operator may call it.
//
// The resolution seed mixes the bet's committed server seed with the
// operator's seed and the bet id; neither side alone decides the draw.
// Statistics, payout and bet state are committed together: if the payout
// fails the bet stays pending and the statistics are unchanged.
func (e *Engine) SettleBet(sender common.Address, id uint64, operatorSeed [32]byte) (Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOperator(sender) {
		return Bet{}, fmt.Errorf("settle bet: %w", access.ErrUnauthorized)
	}

	if id >= uint64(len(e.bets)) {
		return Bet{}, fmt.Errorf("settle bet %d: %w", id, ErrBetNotFound)
	}

	rec := e.bets[id]
	if rec.bet.Status == StatusSettled {
		return Bet{}, fmt.Errorf("settle bet %d: %w", id, ErrAlreadySettled)
	}

	betID := uint256.NewInt(id).Bytes32()
	seed := crypto.Keccak256Hash(rec.serverSeed[:], operatorSeed[:], betID[:])

	res, err := settlement.Resolve(rec.bet.Mode, rec.bet.Stake, seed, e.stats, e.cfg.Params)
	if err != nil {
		return Bet{}, fmt.Errorf("settle bet %d: %w", id, err)
	}

	next := settlement.Next(e.stats, res, e.cfg.Params)

	if !res.Payout.IsZero() {
		err = e.ledger.Withdraw(e.cfg.Address, rec.bet.Asset, res.Payout, rec.bet.Player)
		if err != nil {
			return Bet{}, fmt.Errorf("settle bet %d: pay out: %w", id, err)
		}
	}

	e.stats = next

	rec.bet.Status = StatusSettled
	rec.bet.Outcome = res.Outcome
	rec.bet.Payout = res.Payout
	rec.bet.Exploded = res.Exploded
	rec.bet.ServerSeed = rec.serverSeed
	rec.bet.SettledAt = e.now()

	slog.Debug("bet settled",
		"betId", id,
		"outcome", string(res.Outcome),
		"payout", res.Payout.Dec(),
		"exploded", res.Exploded,
		"explosionRateBps", next.ExplosionRateBps,
	)

	e.emitter.Emit(events.BetSettled{
		BetID:            id,
		Player:           rec.bet.Player,
		Mode:             uint8(rec.bet.Mode),
		Stake:            rec.bet.Stake.Clone(),
		Outcome:          string(res.Outcome),
		Payout:           res.Payout.Clone(),
		Exploded:         res.Exploded,
		ServerSeed:       rec.serverSeed,
		ExplosionRateBps: next.ExplosionRateBps,
	})

	return rec.view(), nil
}
