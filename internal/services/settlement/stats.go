package settlement

import (
	"github.com/holiman/uint256"
)

// Stats are the running explosion statistics shared by every bet of one
// engine. Values are plain data so a Stats can be copied as a snapshot.
type Stats struct {
	Bets       uint64
	Wins       uint64
	Draws      uint64
	Losses     uint64
	Explosions uint64
	// ReturnBps is the sum of every settled multiplier, so ReturnBps/Bets is
	// the realized share of stakes returned to players independent of asset.
	ReturnBps uint256.Int
	// ExplosionRateBps is the chance that the next bet explodes.
	ExplosionRateBps uint64
}

// NewStats returns statistics for an engine that has settled nothing yet.
func NewStats(p Params) Stats {
	return Stats{ExplosionRateBps: p.BaseExplosionBps}
}

// RealizedReturnBps returns ReturnBps/Bets, or 0 before the first settlement.
func (s Stats) RealizedReturnBps() uint64 {
	if s.Bets == 0 {
		return 0
	}
	avg := new(uint256.Int).Div(&s.ReturnBps, uint256.NewInt(s.Bets))
	return avg.Uint64()
}

// GlobalExplosionRateBps is the realized explosion frequency.
func (s Stats) GlobalExplosionRateBps() uint64 {
	if s.Bets == 0 {
		return 0
	}
	return s.Explosions * BasisPoints / s.Bets
}

// Next returns the statistics after res has been settled. s is not modified.
func Next(s Stats, res Result, p Params) Stats {
	next := s
	next.Bets++

	switch res.Outcome {
	case OutcomeWin:
		next.Wins++
	case OutcomeDraw:
		next.Draws++
	default:
		next.Losses++
	}

	if res.Exploded {
		next.Explosions++
	}

	next.ReturnBps.Add(&next.ReturnBps, uint256.NewInt(res.MultiplierBps))

	realized := next.RealizedReturnBps()
	switch {
	case realized > p.TargetReturnBps:
		next.ExplosionRateBps = min(next.ExplosionRateBps+p.StepBps, p.MaxExplosionBps)
	case realized < p.TargetReturnBps:
		if next.ExplosionRateBps < p.MinExplosionBps+p.StepBps {
			next.ExplosionRateBps = p.MinExplosionBps
		} else {
			next.ExplosionRateBps -= p.StepBps
		}
	}

	return next
}
