// Package metrics exposes ledger and game activity as Prometheus metrics.
// It is fed by the event stream, so the core packages never import it.
package metrics

import (
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fastprodman/wagerhouse/internal/events"
)

const namespace = "wagerhouse"

// Emitter turns events into metric updates.
type Emitter struct {
	events        *prometheus.CounterVec
	volume        *prometheus.CounterVec
	betsPlaced    *prometheus.CounterVec
	betsSettled   *prometheus.CounterVec
	explosions    prometheus.Counter
	explosionRate prometheus.Gauge
	live          prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Emitter, error) {
	m := &Emitter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Count of emitted ledger and game events by type.",
		}, []string{"type"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "treasury_volume_total",
			Help:      "Token units moved through the treasury by direction and asset.",
		}, []string{"direction", "asset"}),
		betsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_placed_total",
			Help:      "Count of placed bets by mode.",
		}, []string{"mode"}),
		betsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_settled_total",
			Help:      "Count of settled bets by outcome.",
		}, []string{"outcome"}),
		explosions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_exploded_total",
			Help:      "Count of settled bets that exploded.",
		}),
		explosionRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "explosion_rate_bps",
			Help:      "Adaptive explosion rate after the latest settlement, in basis points.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "game_live",
			Help:      "1 while the game accepts bets.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.events, m.volume, m.betsPlaced, m.betsSettled, m.explosions, m.explosionRate, m.live,
	} {
		err := reg.Register(c)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SetExplosionRate seeds the gauge before the first settlement.
func (m *Emitter) SetExplosionRate(bps uint64) {
	if m == nil {
		return
	}
	m.explosionRate.Set(float64(bps))
}

func (m *Emitter) Emit(e events.Event) {
	if m == nil || e == nil {
		return
	}

	m.events.WithLabelValues(e.EventType()).Inc()

	switch ev := e.(type) {
	case events.TokensDeposited:
		m.volume.WithLabelValues("in", ev.Asset.Hex()).Add(units(ev.Amount))
	case events.TokensWithdrawn:
		m.volume.WithLabelValues("out", ev.Asset.Hex()).Add(units(ev.Amount))
	case events.EmergencyWithdrawn:
		m.volume.WithLabelValues("emergency", ev.Asset.Hex()).Add(units(ev.Amount))
	case events.BetPlaced:
		m.betsPlaced.WithLabelValues(strconv.Itoa(int(ev.Mode))).Inc()
	case events.BetSettled:
		m.betsSettled.WithLabelValues(ev.Outcome).Inc()
		if ev.Exploded {
			m.explosions.Inc()
		}
		m.explosionRate.Set(float64(ev.ExplosionRateBps))
	case events.GameLiveToggled:
		if ev.Live {
			m.live.Set(1)
		} else {
			m.live.Set(0)
		}
	}
}

func units(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
