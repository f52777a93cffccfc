// Package settlement resolves rock/paper/scissors wagers.
//
// Everything here is a pure function of its arguments: the draw comes from
// the seed, and the only other input is a snapshot of the running
// statistics. The engine owns the statistics and feeds the result of Next
// back into the following Resolve, which makes outcomes path dependent.
// That feedback is the adaptive risk control: while the realized return to
// players runs above target, the explosion rate climbs.
package settlement

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// BasisPoints is the denominator of every *Bps value.
const BasisPoints = 10_000

var (
	ErrInvalidMode    = errors.New("invalid mode")
	ErrPayoutOverflow = errors.New("payout overflow")
)

type Mode uint8

const (
	Rock     Mode = 1
	Paper    Mode = 2
	Scissors Mode = 3
)

func (m Mode) Valid() bool { return m >= Rock && m <= Scissors }

func (m Mode) String() string {
	switch m {
	case Rock:
		return "rock"
	case Paper:
		return "paper"
	case Scissors:
		return "scissors"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Beats reports whether m wins against other.
func (m Mode) Beats(other Mode) bool {
	return (m == Rock && other == Scissors) ||
		(m == Paper && other == Rock) ||
		(m == Scissors && other == Paper)
}

// counter returns the hand that beats m.
func (m Mode) counter() Mode {
	return Mode(uint8(m)%3 + 1)
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// OutcomeOf classifies a payout against its stake: nothing back is a loss,
// the stake back is a draw, more than the stake is a win.
func OutcomeOf(stake, payout *uint256.Int) Outcome {
	switch {
	case payout.IsZero():
		return OutcomeLoss
	case payout.Gt(stake):
		return OutcomeWin
	default:
		return OutcomeDraw
	}
}

// Params is the payout curve.
type Params struct {
	// WinMultiplierBps is paid on a win; 19_600 pays 1.96x the stake.
	WinMultiplierBps uint64
	// BaseExplosionBps is the explosion rate a fresh engine starts with.
	BaseExplosionBps uint64
	MinExplosionBps  uint64
	MaxExplosionBps  uint64
	// StepBps is how far one settlement can move the explosion rate.
	StepBps uint64
	// TargetReturnBps is the long-run share of stakes returned to players.
	TargetReturnBps uint64
}

func DefaultParams() Params {
	return Params{
		WinMultiplierBps: 19_600,
		BaseExplosionBps: 300,
		MinExplosionBps:  100,
		MaxExplosionBps:  2_500,
		StepBps:          5,
		TargetReturnBps:  9_600,
	}
}

func (p Params) Validate() error {
	switch {
	case p.WinMultiplierBps <= BasisPoints:
		return fmt.Errorf("win multiplier must exceed %d bps", BasisPoints)
	case p.MinExplosionBps > p.MaxExplosionBps:
		return errors.New("min explosion rate above max")
	case p.MaxExplosionBps > BasisPoints:
		return fmt.Errorf("max explosion rate above %d bps", BasisPoints)
	case p.BaseExplosionBps < p.MinExplosionBps || p.BaseExplosionBps > p.MaxExplosionBps:
		return errors.New("base explosion rate outside [min, max]")
	}
	return nil
}

// Result is the resolution of one wager.
type Result struct {
	HouseHand     Mode
	Exploded      bool
	MultiplierBps uint64
	Payout        *uint256.Int
	Outcome       Outcome
}

// Resolve computes the outcome of a wager of stake on mode for seed, given
// the statistics in force at settlement time.
func Resolve(mode Mode, stake *uint256.Int, seed [32]byte, stats Stats, p Params) (Result, error) {
	if !mode.Valid() {
		return Result{}, ErrInvalidMode
	}

	draw := crypto.Keccak256(seed[:], []byte{byte(mode)})
	explosionRoll := binary.BigEndian.Uint64(draw[0:8]) % BasisPoints
	handRoll := binary.BigEndian.Uint64(draw[8:16]) % 3

	res := Result{HouseHand: Mode(handRoll + 1)}

	switch {
	case explosionRoll < stats.ExplosionRateBps:
		res.Exploded = true
		res.HouseHand = mode.counter()
		res.MultiplierBps = 0
	case mode.Beats(res.HouseHand):
		res.MultiplierBps = p.WinMultiplierBps
	case res.HouseHand == mode:
		res.MultiplierBps = BasisPoints
	default:
		res.MultiplierBps = 0
	}

	payout, err := applyMultiplier(stake, res.MultiplierBps)
	if err != nil {
		return Result{}, err
	}

	res.Payout = payout
	res.Outcome = OutcomeOf(stake, payout)

	return res, nil
}

func applyMultiplier(stake *uint256.Int, bps uint64) (*uint256.Int, error) {
	if bps == BasisPoints {
		return stake.Clone(), nil
	}

	scaled, overflow := new(uint256.Int).MulOverflow(stake, uint256.NewInt(bps))
	if overflow {
		return nil, ErrPayoutOverflow
	}

	return scaled.Div(scaled, uint256.NewInt(BasisPoints)), nil
}
