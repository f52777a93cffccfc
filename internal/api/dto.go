package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
	"github.com/fastprodman/wagerhouse/internal/services/betting"
	"github.com/fastprodman/wagerhouse/internal/services/settlement"
	"github.com/fastprodman/wagerhouse/internal/services/treasury"
)

// Amounts travel as base-10 strings, addresses and hashes as 0x hex.

type permitRequest struct {
	Token    string `json:"token"`
	Amount   string `json:"amount"`
	Nonce    string `json:"nonce"`
	Deadline string `json:"deadline"`
}

type transferDetailsRequest struct {
	To              string `json:"to"`
	RequestedAmount string `json:"requestedAmount"`
}

type placeBetRequest struct {
	Mode            uint8                  `json:"mode"`
	Permit          permitRequest          `json:"permit"`
	TransferDetails transferDetailsRequest `json:"transferDetails"`
	Signature       string                 `json:"signature"`
}

type settleBetRequest struct {
	Seed string `json:"seed"`
}

type betResponse struct {
	ID         uint64     `json:"id"`
	Player     string     `json:"player"`
	Asset      string     `json:"asset"`
	Stake      string     `json:"stake"`
	Mode       uint8      `json:"mode"`
	ModeName   string     `json:"modeName"`
	Status     string     `json:"status"`
	Outcome    string     `json:"outcome,omitempty"`
	Payout     string     `json:"payout,omitempty"`
	Exploded   bool       `json:"exploded"`
	Commitment string     `json:"commitment"`
	ServerSeed string     `json:"serverSeed,omitempty"`
	PlacedAt   time.Time  `json:"placedAt"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

func toBetResponse(b betting.Bet) betResponse {
	resp := betResponse{
		ID:         b.ID,
		Player:     b.Player.Hex(),
		Asset:      b.Asset.Hex(),
		Stake:      b.Stake.Dec(),
		Mode:       uint8(b.Mode),
		ModeName:   b.Mode.String(),
		Status:     string(b.Status),
		Exploded:   b.Exploded,
		Commitment: b.Commitment.Hex(),
		PlacedAt:   b.PlacedAt.UTC(),
	}

	if b.Status == betting.StatusSettled {
		settledAt := b.SettledAt.UTC()
		resp.Outcome = string(b.Outcome)
		resp.Payout = b.Payout.Dec()
		resp.ServerSeed = b.ServerSeed.Hex()
		resp.SettledAt = &settledAt
	}

	return resp
}

type gameResponse struct {
	Live                   bool   `json:"live"`
	BetCount               uint64 `json:"betCount"`
	Settled                uint64 `json:"settled"`
	Wins                   uint64 `json:"wins"`
	Draws                  uint64 `json:"draws"`
	Losses                 uint64 `json:"losses"`
	Explosions             uint64 `json:"explosions"`
	ExplosionRateBps       uint64 `json:"explosionRateBps"`
	GlobalExplosionRateBps uint64 `json:"globalExplosionRateBps"`
	RealizedReturnBps      uint64 `json:"realizedReturnBps"`
}

func toGameResponse(live bool, count uint64, s settlement.Stats) gameResponse {
	return gameResponse{
		Live:                   live,
		BetCount:               count,
		Settled:                s.Bets,
		Wins:                   s.Wins,
		Draws:                  s.Draws,
		Losses:                 s.Losses,
		Explosions:             s.Explosions,
		ExplosionRateBps:       s.ExplosionRateBps,
		GlobalExplosionRateBps: s.GlobalExplosionRateBps(),
		RealizedReturnBps:      s.RealizedReturnBps(),
	}
}

type gameStatsResponse struct {
	Caller           string `json:"caller"`
	Asset            string `json:"asset"`
	TotalDeposits    string `json:"totalDeposits"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	// Exposure is deposits minus withdrawals; negative when the caller paid
	// out more than it took in.
	Exposure string `json:"exposure"`
}

func toGameStatsResponse(caller, asset common.Address, s treasury.GameStats) gameStatsResponse {
	exposure, negative := s.Exposure()

	exp := exposure.Dec()
	if negative {
		exp = "-" + exp
	}

	return gameStatsResponse{
		Caller:           caller.Hex(),
		Asset:            asset.Hex(),
		TotalDeposits:    s.TotalDeposits.Dec(),
		TotalWithdrawals: s.TotalWithdrawals.Dec(),
		Exposure:         exp,
	}
}

type amountResponse struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func toAmountResponse(asset common.Address, v *uint256.Int) amountResponse {
	return amountResponse{Asset: asset.Hex(), Amount: v.Dec()}
}

type assetAmountRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

type toggleRequest struct {
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

type liveRequest struct {
	Live bool `json:"live"`
}

type mintRequest struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type eventResponse struct {
	Seq        int64             `json:"seq"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	OccurredAt time.Time         `json:"occurredAt"`
}

func toEventResponses(recs []eventlog.Record) []eventResponse {
	out := make([]eventResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, eventResponse{
			Seq:        r.Seq,
			ID:         r.ID.String(),
			Type:       r.Type,
			Attributes: r.Attributes,
			OccurredAt: r.OccurredAt,
		})
	}
	return out
}
