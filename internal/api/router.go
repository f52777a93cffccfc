package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Post("/bets", h.PlaceBetHandler)
	r.Get("/bets/{betId}", h.GetBetHandler)
	r.Post("/bets/{betId}/settle", h.SettleBetHandler)

	r.Get("/game", h.GetGameHandler)
	r.Get("/game/max-bet/{asset}", h.GetMaxBetHandler)

	r.Route("/treasury", func(r chi.Router) {
		r.Get("/stats/{caller}/{asset}", h.GetGameStatsHandler)
		r.Get("/balance/{asset}", h.GetTreasuryBalanceHandler)
		r.Get("/access/{address}", h.GetAccessHandler)
		r.Post("/deposit", h.DepositHandler)
		r.Post("/withdraw", h.WithdrawHandler)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Put("/contracts", h.SetAuthorizedContractHandler)
		r.Put("/tokens", h.SetAcceptedTokenHandler)
		r.Put("/game/live", h.SetLiveHandler)
		r.Post("/game/live/toggle", h.ToggleLiveHandler)
		r.Put("/game/max-bet", h.SetMaxBetHandler)
		r.Put("/game/operators", h.SetOperatorHandler)
		r.Post("/emergency-withdraw", h.EmergencyWithdrawHandler)
	})

	if d.Journal != nil {
		r.Get("/events", h.ListEventsHandler)
	}

	if d.Faucet != nil {
		r.Post("/dev/mint", h.MintHandler)
	}

	return r
}
