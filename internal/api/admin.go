package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// SetAuthorizedContractHandler handles PUT /admin/contracts
func (h *HandlerProvider) SetAuthorizedContractHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.registry.SetAuthorizedContract)
}

// SetAcceptedTokenHandler handles PUT /admin/tokens
func (h *HandlerProvider) SetAcceptedTokenHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.registry.SetAcceptedToken)
}

// SetOperatorHandler handles PUT /admin/game/operators
func (h *HandlerProvider) SetOperatorHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.engine.SetOperator)
}

func (h *HandlerProvider) toggle(
	w http.ResponseWriter,
	r *http.Request,
	set func(sender, target common.Address, enabled bool) error,
) {
	sender, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	target, err := parseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = set(sender, target, req.Enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"address": target.Hex(), "enabled": req.Enabled})
}

// SetLiveHandler handles PUT /admin/game/live
func (h *HandlerProvider) SetLiveHandler(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req liveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.engine.SetLive(sender, req.Live)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"live": req.Live})
}

// ToggleLiveHandler handles POST /admin/game/live/toggle
func (h *HandlerProvider) ToggleLiveHandler(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireCaller(w, r)
	if !ok {
		return
	}

	live, err := h.engine.ToggleLive(sender)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"live": live})
}

// SetMaxBetHandler handles PUT /admin/game/max-bet
func (h *HandlerProvider) SetMaxBetHandler(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireCaller(w, r)
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

	err = h.engine.SetMaxBetAmount(sender, asset, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAmountResponse(asset, amount))
}

// EmergencyWithdrawHandler handles POST /admin/emergency-withdraw
func (h *HandlerProvider) EmergencyWithdrawHandler(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireCaller(w, r)
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

	err = h.treasury.EmergencyWithdraw(sender, asset, amount, recipient)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAmountResponse(asset, h.treasury.Balance(asset)))
}
