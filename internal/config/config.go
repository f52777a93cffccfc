package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fastprodman/wagerhouse/internal/services/settlement"
)

type PostgresConfig struct {
	// DSN may be empty for wagerd, which then runs without the event journal.
	DSN             string        `env:"PG_DSN" envDefault:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// HouseConfig names the identities of one deployment.
type HouseConfig struct {
	Owner    common.Address `env:"HOUSE_OWNER"`
	Treasury common.Address `env:"HOUSE_TREASURY_ADDRESS"`
	Game     common.Address `env:"HOUSE_GAME_ADDRESS"`
	// Operators may settle bets in addition to the owner.
	Operators []common.Address `env:"HOUSE_OPERATORS" envDefault:""`
	// AcceptedTokens are enabled and given MaxBet at startup.
	AcceptedTokens []common.Address `env:"HOUSE_ACCEPTED_TOKENS" envDefault:""`
	MaxBet         uint64           `env:"HOUSE_MAX_BET" envDefault:"0"`
	Live           bool             `env:"HOUSE_LIVE" envDefault:"false"`
	// ChainID and VerifyingContract bind permit signatures to this deployment.
	ChainID           uint64         `env:"PERMIT_CHAIN_ID" envDefault:"1"`
	VerifyingContract common.Address `env:"PERMIT_VERIFYING_CONTRACT" envDefault:"0x000000000022D473030F116dDEE9F6B43aC78BA3"`
}

type SettlementConfig struct {
	WinMultiplierBps uint64 `env:"SETTLEMENT_WIN_MULTIPLIER_BPS" envDefault:"19600"`
	BaseExplosionBps uint64 `env:"SETTLEMENT_BASE_EXPLOSION_BPS" envDefault:"300"`
	MinExplosionBps  uint64 `env:"SETTLEMENT_MIN_EXPLOSION_BPS" envDefault:"100"`
	MaxExplosionBps  uint64 `env:"SETTLEMENT_MAX_EXPLOSION_BPS" envDefault:"2500"`
	StepBps          uint64 `env:"SETTLEMENT_STEP_BPS" envDefault:"5"`
	TargetReturnBps  uint64 `env:"SETTLEMENT_TARGET_RETURN_BPS" envDefault:"9600"`
}

func (c SettlementConfig) Params() settlement.Params {
	return settlement.Params{
		WinMultiplierBps: c.WinMultiplierBps,
		BaseExplosionBps: c.BaseExplosionBps,
		MinExplosionBps:  c.MinExplosionBps,
		MaxExplosionBps:  c.MaxExplosionBps,
		StepBps:          c.StepBps,
		TargetReturnBps:  c.TargetReturnBps,
	}
}
