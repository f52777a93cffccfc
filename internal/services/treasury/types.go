package treasury

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrNotAuthorizedCaller         = errors.New("not an authorized contract")
	ErrTokenNotAccepted            = errors.New("token not accepted")
	ErrInsufficientTreasuryBalance = errors.New("insufficient treasury balance")
	ErrAmountOverflow              = errors.New("amount overflow")
	ErrZeroAmount                  = errors.New("amount must be > 0")
)

// GameStats accumulates the funds a single caller moved for one asset.
// Both totals only ever grow.
type GameStats struct {
	TotalDeposits    *uint256.Int
	TotalWithdrawals *uint256.Int
}

// Exposure returns deposits minus withdrawals and whether the result is
// negative (the caller paid out more than it took in).
func (s GameStats) Exposure() (*uint256.Int, bool) {
	if s.TotalDeposits.Lt(s.TotalWithdrawals) {
		return new(uint256.Int).Sub(s.TotalWithdrawals, s.TotalDeposits), true
	}
	return new(uint256.Int).Sub(s.TotalDeposits, s.TotalWithdrawals), false
}

type statsKey struct {
	caller common.Address
	asset  common.Address
}

type gameStats struct {
	deposits    uint256.Int
	withdrawals uint256.Int
}

func (s gameStats) snapshot() GameStats {
	return GameStats{
		TotalDeposits:    s.deposits.Clone(),
		TotalWithdrawals: s.withdrawals.Clone(),
	}
}
