package betting

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/services/settlement"
)

var (
	ErrInvalidMode        = errors.New("invalid mode")
	ErrBetTooLarge        = errors.New("bet too large")
	ErrGameNotLive        = errors.New("game not live")
	ErrBetNotFound        = errors.New("bet not found")
	ErrAlreadySettled     = errors.New("bet already settled")
	ErrWrongRecipient     = errors.New("transfer recipient is not the treasury")
	ErrEntropyUnavailable = errors.New("entropy source failed")
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
)

// Bet is the public view of a wager. ServerSeed stays zero until the bet is
// settled; Commitment is its Keccak256 published at placement.
type Bet struct {
	ID         uint64
	Player     common.Address
	Asset      common.Address
	Stake      *uint256.Int
	Mode       settlement.Mode
	Status     Status
	Outcome    settlement.Outcome
	Payout     *uint256.Int
	Exploded   bool
	Commitment common.Hash
	ServerSeed common.Hash
	PlacedAt   time.Time
	SettledAt  time.Time
}

type record struct {
	bet        Bet
	serverSeed common.Hash
}

func (r *record) view() Bet {
	b := r.bet
	b.Stake = r.bet.Stake.Clone()
	if r.bet.Payout != nil {
		b.Payout = r.bet.Payout.Clone()
	}

	return b
}
