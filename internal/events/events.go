package events

import (
	"encoding/hex"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	TypeContractAuthorized = "treasury.contract_authorized"
	TypeTokenAccepted      = "treasury.token_accepted"
	TypeTokensDeposited    = "treasury.tokens_deposited"
	TypeTokensWithdrawn    = "treasury.tokens_withdrawn"
	TypeEmergencyWithdrawn = "treasury.emergency_withdrawn"
	TypeBetPlaced          = "game.bet_placed"
	TypeBetSettled         = "game.bet_settled"
	TypeGameLiveToggled    = "game.live_toggled"
	TypeMaxBetAmountSet    = "game.max_bet_amount_set"
	TypeOperatorSet        = "game.operator_set"
)

// Event is a record produced by a committed state change.
type Event interface {
	EventType() string
	Attributes() map[string]string
}

type ContractAuthorized struct {
	Caller  common.Address
	Enabled bool
}

func (ContractAuthorized) EventType() string { return TypeContractAuthorized }

func (e ContractAuthorized) Attributes() map[string]string {
	return map[string]string{
		"caller":  e.Caller.Hex(),
		"enabled": strconv.FormatBool(e.Enabled),
	}
}

type TokenAccepted struct {
	Asset   common.Address
	Enabled bool
}

func (TokenAccepted) EventType() string { return TypeTokenAccepted }

func (e TokenAccepted) Attributes() map[string]string {
	return map[string]string{
		"asset":   e.Asset.Hex(),
		"enabled": strconv.FormatBool(e.Enabled),
	}
}

type TokensDeposited struct {
	Caller common.Address
	Asset  common.Address
	Amount *uint256.Int
}

func (TokensDeposited) EventType() string { return TypeTokensDeposited }

func (e TokensDeposited) Attributes() map[string]string {
	return map[string]string{
		"caller": e.Caller.Hex(),
		"asset":  e.Asset.Hex(),
		"amount": formatAmount(e.Amount),
	}
}

type TokensWithdrawn struct {
	Caller    common.Address
	Recipient common.Address
	Asset     common.Address
	Amount    *uint256.Int
}

func (TokensWithdrawn) EventType() string { return TypeTokensWithdrawn }

func (e TokensWithdrawn) Attributes() map[string]string {
	return map[string]string{
		"caller":    e.Caller.Hex(),
		"recipient": e.Recipient.Hex(),
		"asset":     e.Asset.Hex(),
		"amount":    formatAmount(e.Amount),
	}
}

// EmergencyWithdrawn is emitted by the owner-only escape hatch. It never
// touches per-caller accounting.
type EmergencyWithdrawn struct {
	Asset     common.Address
	Amount    *uint256.Int
	Recipient common.Address
}

func (EmergencyWithdrawn) EventType() string { return TypeEmergencyWithdrawn }

func (e EmergencyWithdrawn) Attributes() map[string]string {
	return map[string]string{
		"asset":     e.Asset.Hex(),
		"amount":    formatAmount(e.Amount),
		"recipient": e.Recipient.Hex(),
	}
}

type BetPlaced struct {
	BetID      uint64
	Player     common.Address
	Mode       uint8
	Asset      common.Address
	Stake      *uint256.Int
	Commitment [32]byte
}

func (BetPlaced) EventType() string { return TypeBetPlaced }

func (e BetPlaced) Attributes() map[string]string {
	return map[string]string{
		"betId":      strconv.FormatUint(e.BetID, 10),
		"player":     e.Player.Hex(),
		"mode":       strconv.FormatUint(uint64(e.Mode), 10),
		"asset":      e.Asset.Hex(),
		"stake":      formatAmount(e.Stake),
		"commitment": "0x" + hex.EncodeToString(e.Commitment[:]),
	}
}

type BetSettled struct {
	BetID            uint64
	Player           common.Address
	Mode             uint8
	Stake            *uint256.Int
	Outcome          string
	Payout           *uint256.Int
	Exploded         bool
	ServerSeed       [32]byte
	ExplosionRateBps uint64
}

func (BetSettled) EventType() string { return TypeBetSettled }

func (e BetSettled) Attributes() map[string]string {
	return map[string]string{
		"betId":            strconv.FormatUint(e.BetID, 10),
		"player":           e.Player.Hex(),
		"mode":             strconv.FormatUint(uint64(e.Mode), 10),
		"stake":            formatAmount(e.Stake),
		"outcome":          e.Outcome,
		"payout":           formatAmount(e.Payout),
		"exploded":         strconv.FormatBool(e.Exploded),
		"serverSeed":       "0x" + hex.EncodeToString(e.ServerSeed[:]),
		"explosionRateBps": strconv.FormatUint(e.ExplosionRateBps, 10),
	}
}

type GameLiveToggled struct {
	Live bool
}

func (GameLiveToggled) EventType() string { return TypeGameLiveToggled }

func (e GameLiveToggled) Attributes() map[string]string {
	return map[string]string{"live": strconv.FormatBool(e.Live)}
}

type MaxBetAmountSet struct {
	Asset  common.Address
	Amount *uint256.Int
}

func (MaxBetAmountSet) EventType() string { return TypeMaxBetAmountSet }

func (e MaxBetAmountSet) Attributes() map[string]string {
	return map[string]string{
		"asset":  e.Asset.Hex(),
		"amount": formatAmount(e.Amount),
	}
}

type OperatorSet struct {
	Operator common.Address
	Enabled  bool
}

func (OperatorSet) EventType() string { return TypeOperatorSet }

func (e OperatorSet) Attributes() map[string]string {
	return map[string]string{
		"operator": e.Operator.Hex(),
		"enabled":  strconv.FormatBool(e.Enabled),
	}
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
