package betting

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/settlement"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// PlaceBet pulls the stake from player into the treasury with the signed
// permit and records a pending bet. Either both happen or neither does.
//
// Checks run in order: mode, per-asset ceiling on the permitted amount,
// live flag, recipient. A fresh server seed is drawn and its commitment
// published so the outcome cannot be chosen after the fact.
func (e *Engine) PlaceBet(
	player common.Address,
	mode settlement.Mode,
	permit tokens.Permit,
	details tokens.TransferDetails,
	signature []byte,
) (uint64, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("place bet: %w", ErrInvalidMode)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	asset := permit.Permitted.Token

	ceiling := e.maxBet[asset]
	if tokens.OrZero(permit.Permitted.Amount).Gt(&ceiling) {
		return 0, fmt.Errorf("place bet: %w", ErrBetTooLarge)
	}

	if !e.live {
		return 0, fmt.Errorf("place bet: %w", ErrGameNotLive)
	}

	if details.To != e.ledger.Address() {
		return 0, fmt.Errorf("place bet: %w", tokens.Fail(ErrWrongRecipient))
	}

	var serverSeed common.Hash

	_, err := io.ReadFull(e.entropy, serverSeed[:])
	if err != nil {
		return 0, fmt.Errorf("place bet: %w: %v", ErrEntropyUnavailable, err)
	}

	stake := tokens.OrZero(details.RequestedAmount).Clone()

	err = e.ledger.DepositVia(e.cfg.Address, asset, stake, func() error {
		return e.port.TransferFrom(player, e.cfg.Address, permit, details, signature)
	})
	if err != nil {
		return 0, fmt.Errorf("place bet: %w", err)
	}

	id := uint64(len(e.bets))
	rec := &record{
		bet: Bet{
			ID:         id,
			Player:     player,
			Asset:      asset,
			Stake:      stake,
			Mode:       mode,
			Status:     StatusPending,
			Commitment: crypto.Keccak256Hash(serverSeed[:]),
			PlacedAt:   e.now(),
		},
		serverSeed: serverSeed,
	}
	e.bets = append(e.bets, rec)

	slog.Debug("bet placed", "betId", id, "player", player.Hex(), "mode", mode.String(), "stake", stake.Dec())

	e.emitter.Emit(events.BetPlaced{
		BetID:      id,
		Player:     player,
		Mode:       uint8(mode),
		Asset:      asset,
		Stake:      stake.Clone(),
		Commitment: rec.bet.Commitment,
	})

	return id, nil
}
