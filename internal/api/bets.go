package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/wagerhouse/internal/services/settlement"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

func parseBetID(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "betId")
	if idStr == "" {
		return 0, fmt.Errorf("missing betId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid betId: %w", err)
	}

	return id, nil
}

func (req placeBetRequest) parse() (tokens.Permit, tokens.TransferDetails, []byte, error) {
	token, err := parseAddress(req.Permit.Token)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("permit.token: %w", err)
	}

	amount, err := parseAmount(req.Permit.Amount)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("permit.amount: %w", err)
	}

	nonce, err := parseAmount(req.Permit.Nonce)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("permit.nonce: %w", err)
	}

	deadline, err := parseAmount(req.Permit.Deadline)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("permit.deadline: %w", err)
	}

	to, err := parseAddress(req.TransferDetails.To)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("transferDetails.to: %w", err)
	}

	requested, err := parseAmount(req.TransferDetails.RequestedAmount)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("transferDetails.requestedAmount: %w", err)
	}

	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		return tokens.Permit{}, tokens.TransferDetails{}, nil, fmt.Errorf("signature: %w", err)
	}

	permit := tokens.Permit{
		Permitted: tokens.TokenPermissions{Token: token, Amount: amount},
		Nonce:     nonce,
		Deadline:  deadline,
	}

	return permit, tokens.TransferDetails{To: to, RequestedAmount: requested}, sig, nil
}

// PlaceBetHandler handles POST /bets. The caller is the player.
func (h *HandlerProvider) PlaceBetHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req placeBetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	permit, details, sig, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.engine.PlaceBet(player, settlement.Mode(req.Mode), permit, details, sig)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bet, err := h.engine.Bet(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBetResponse(bet))
}

// GetBetHandler handles GET /bets/{betId}
func (h *HandlerProvider) GetBetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseBetID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid betId in path")
		return
	}

	bet, err := h.engine.Bet(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// SettleBetHandler handles POST /bets/{betId}/settle
func (h *HandlerProvider) SettleBetHandler(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := parseBetID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid betId in path")
		return
	}

	var req settleBetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	seed, err := parseHash(req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bet, err := h.engine.SettleBet(sender, id, seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// GetGameHandler handles GET /game
func (h *HandlerProvider) GetGameHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toGameResponse(h.engine.IsLive(), h.engine.BetCount(), h.engine.Stats()))
}

// GetMaxBetHandler handles GET /game/max-bet/{asset}
func (h *HandlerProvider) GetMaxBetHandler(w http.ResponseWriter, r *http.Request) {
	asset, err := parseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAmountResponse(asset, h.engine.MaxBetAmount(asset)))
}
