package main

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/config"
	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/services/betting"
	"github.com/fastprodman/wagerhouse/internal/services/treasury"
	"github.com/fastprodman/wagerhouse/internal/tokens"
	"github.com/fastprodman/wagerhouse/internal/tokens/memory"
)

type house struct {
	bank     *memory.Bank
	treasury *treasury.Treasury
	engine   *betting.Engine
}

// newHouse builds the ledger and game and applies the configured startup
// administration as the owner.
func newHouse(hc config.HouseConfig, sc config.SettlementConfig, emitter events.Emitter) (*house, error) {
	bank := memory.New(tokens.Domain{ChainID: hc.ChainID, VerifyingContract: hc.VerifyingContract})
	registry := access.New(hc.Owner, emitter)
	tr := treasury.New(hc.Treasury, registry, bank, emitter)

	engine, err := betting.New(betting.Config{
		Address: hc.Game,
		Owner:   hc.Owner,
		Params:  sc.Params(),
	}, tr, bank, emitter)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	err = registry.SetAuthorizedContract(hc.Owner, hc.Game, true)
	if err != nil {
		return nil, fmt.Errorf("authorize game: %w", err)
	}

	for _, asset := range hc.AcceptedTokens {
		err = registry.SetAcceptedToken(hc.Owner, asset, true)
		if err != nil {
			return nil, fmt.Errorf("accept token %s: %w", asset.Hex(), err)
		}

		err = engine.SetMaxBetAmount(hc.Owner, asset, uint256.NewInt(hc.MaxBet))
		if err != nil {
			return nil, fmt.Errorf("set max bet for %s: %w", asset.Hex(), err)
		}
	}

	for _, op := range hc.Operators {
		err = engine.SetOperator(hc.Owner, op, true)
		if err != nil {
			return nil, fmt.Errorf("set operator %s: %w", op.Hex(), err)
		}
	}

	err = engine.SetLive(hc.Owner, hc.Live)
	if err != nil {
		return nil, fmt.Errorf("set live: %w", err)
	}

	return &house{bank: bank, treasury: tr, engine: engine}, nil
}
