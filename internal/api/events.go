package api

import (
	"net/http"
	"strconv"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
)

// ListEventsHandler handles GET /events?after={seq}&type={type}&limit={n}
func (h *HandlerProvider) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		f   eventlog.Filter
		err error
	)

	if raw := q.Get("after"); raw != "" {
		f.AfterSeq, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || f.AfterSeq < 0 {
			writeError(w, http.StatusBadRequest, "invalid after")
			return
		}
	}

	if raw := q.Get("limit"); raw != "" {
		f.Limit, err = strconv.Atoi(raw)
		if err != nil || f.Limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	f.Type = q.Get("type")

	recs, err := h.journal.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(recs))
}

// MintHandler handles POST /dev/mint
func (h *HandlerProvider) MintHandler(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !decodeBody(w, r, &req) {
		return
	}

	asset, err := parseAddress(req.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	holder, err := parseAddress(req.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.faucet.Mint(asset, holder, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
