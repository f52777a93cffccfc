package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/services/betting"
	"github.com/fastprodman/wagerhouse/internal/services/treasury"
	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// CallerHeader carries the identity a request acts as. Authenticating it is
// left to the gateway in front of the service.
const CallerHeader = "X-Caller"

// EventLister reads the persisted event journal.
type EventLister interface {
	List(ctx context.Context, f eventlog.Filter) ([]eventlog.Record, error)
}

// Minter credits tokens out of thin air. Only wired in development.
type Minter interface {
	Mint(asset, holder common.Address, amount *uint256.Int) error
}

// Deps are the services behind the HTTP API. Journal, Metrics and Faucet
// are optional; their routes are not mounted when nil.
type Deps struct {
	Engine   *betting.Engine
	Treasury *treasury.Treasury
	Journal  EventLister
	Metrics  http.Handler
	Faucet   Minter
}

// HandlerProvider exposes the house services as HTTP handlers.
type HandlerProvider struct {
	engine   *betting.Engine
	treasury *treasury.Treasury
	registry *access.Registry
	journal  EventLister
	faucet   Minter
}

// NewHandler returns a new Handler provider.
func NewHandler(d Deps) *HandlerProvider {
	return &HandlerProvider{
		engine:   d.Engine,
		treasury: d.Treasury,
		registry: d.Treasury.Registry(),
		journal:  d.Journal,
		faucet:   d.Faucet,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps service errors onto HTTP statuses.
//
//nolint:cyclop
func writeDomainError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, access.ErrUnauthorized),
		errors.Is(err, treasury.ErrNotAuthorizedCaller):
		status = http.StatusForbidden
	case errors.Is(err, betting.ErrBetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, betting.ErrAlreadySettled),
		errors.Is(err, betting.ErrGameNotLive),
		errors.Is(err, treasury.ErrInsufficientTreasuryBalance):
		status = http.StatusConflict
	case errors.Is(err, betting.ErrInvalidMode),
		errors.Is(err, treasury.ErrZeroAmount):
		status = http.StatusBadRequest
	case errors.Is(err, betting.ErrBetTooLarge),
		errors.Is(err, treasury.ErrTokenNotAccepted),
		errors.Is(err, treasury.ErrAmountOverflow),
		errors.Is(err, tokens.ErrTransferFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, betting.ErrEntropyUnavailable):
		status = http.StatusServiceUnavailable
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeError(w, status, err.Error())
}

func callerFrom(r *http.Request) (common.Address, error) {
	raw := strings.TrimSpace(r.Header.Get(CallerHeader))
	if raw == "" {
		return common.Address{}, fmt.Errorf("missing %s header", CallerHeader)
	}

	return parseAddress(raw)
}

func parseAddress(raw string) (common.Address, error) {
	var addr common.Address

	err := addr.UnmarshalText([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}

	return addr, nil
}

// parseAmount reads a base-10 token amount.
func parseAmount(raw string) (*uint256.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("amount required")
	}

	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}

	return v, nil
}

func parseHash(raw string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid 32-byte hex value %q", raw)
	}

	return common.BytesToHash(b), nil
}

// decodeBody reads a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	//nolint:errcheck
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")

		return false
	}

	return true
}

// requireCaller writes a 400 and returns false when the caller header is bad.
func requireCaller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return common.Address{}, false
	}

	return caller, true
}
