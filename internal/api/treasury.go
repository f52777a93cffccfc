package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetGameStatsHandler handles GET /treasury/stats/{caller}/{asset}
func (h *HandlerProvider) GetGameStatsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := parseAddress(chi.URLParam(r, "caller"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := parseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toGameStatsResponse(caller, asset, h.treasury.GameStats(caller, asset)))
}

// GetTreasuryBalanceHandler handles GET /treasury/balance/{asset}
func (h *HandlerProvider) GetTreasuryBalanceHandler(w http.ResponseWriter, r *http.Request) {
	asset, err := parseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAmountResponse(asset, h.treasury.Balance(asset)))
}

// GetAccessHandler handles GET /treasury/access/{address}
func (h *HandlerProvider) GetAccessHandler(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address":    addr.Hex(),
		"authorized": h.registry.IsAuthorized(addr),
		"accepted":   h.registry.IsAccepted(addr),
		"operator":   h.engine.IsOperator(addr),
	})
}

// DepositHandler handles POST /treasury/deposit on behalf of the caller.
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req assetAmountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	asset, err := parseAddress(req.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.treasury.Deposit(caller, asset, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameStatsResponse(caller, asset, h.treasury.GameStats(caller, asset)))
}

// WithdrawHandler handles POST /treasury/withdraw on behalf of the caller.
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	asset, err := parseAddress(req.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.treasury.Withdraw(caller, asset, amount, recipient)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameStatsResponse(caller, asset, h.treasury.GameStats(caller, asset)))
}
