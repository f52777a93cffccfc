package betting

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/services/settlement"
	"github.com/fastprodman/wagerhouse/internal/services/treasury"
	"github.com/fastprodman/wagerhouse/internal/tokens"
	"github.com/fastprodman/wagerhouse/internal/tokens/memory"
	"github.com/fastprodman/wagerhouse/internal/tokens/tokenstest"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	operator = common.HexToAddress("0x0000000000000000000000000000000000000002")
	player   = common.HexToAddress("0x0000000000000000000000000000000000000003")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000004")
	vault    = common.HexToAddress("0xf56F5D348ad4bc29e0885550250Cb1B1a919834c")
	engineID = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	wld      = common.HexToAddress("0x2cFc85d8E48F8EAB294be644d9E25C3030863003")
)

// fillReader yields the same byte forever.
type fillReader byte

func (r fillReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

type fixture struct {
	engine   *Engine
	treasury *treasury.Treasury
	bank     *memory.Bank
	port     *tokenstest.RecordingPort
	rec      *events.Recorder
	nonce    uint64
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	rec := new(events.Recorder)
	bank := memory.New(tokens.Domain{ChainID: 1}, memory.WithVerifier(tokenstest.SentinelVerifier{}))
	port := tokenstest.NewRecordingPort(bank)
	registry := access.New(owner, rec)
	tr := treasury.New(vault, registry, port, rec)

	opts = append([]Option{WithEntropy(fillReader(7))}, opts...)

	engine, err := New(Config{
		Address: engineID,
		Owner:   owner,
		Params:  settlement.DefaultParams(),
	}, tr, port, rec, opts...)
	require.NoError(t, err)

	require.NoError(t, registry.SetAuthorizedContract(owner, engineID, true))
	require.NoError(t, registry.SetAcceptedToken(owner, wld, true))
	require.NoError(t, engine.SetLive(owner, true))
	require.NoError(t, engine.SetMaxBetAmount(owner, wld, amt(1_000)))

	require.NoError(t, bank.Mint(wld, player, amt(10_000)))
	require.NoError(t, bank.Mint(wld, vault, amt(100_000)))

	rec.Reset()

	return &fixture{engine: engine, treasury: tr, bank: bank, port: port, rec: rec}
}

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

func (f *fixture) permit(stake uint64) (tokens.Permit, tokens.TransferDetails) {
	f.nonce++

	return tokens.Permit{
			Permitted: tokens.TokenPermissions{Token: wld, Amount: amt(stake)},
			Nonce:     amt(f.nonce),
			Deadline:  amt(1 << 40),
		}, tokens.TransferDetails{
			To:              vault,
			RequestedAmount: amt(stake),
		}
}

func (f *fixture) place(t *testing.T, mode settlement.Mode, stake uint64) uint64 {
	t.Helper()

	permit, details := f.permit(stake)

	id, err := f.engine.PlaceBet(player, mode, permit, details, tokenstest.Sentinel)
	require.NoError(t, err)

	return id
}

// operatorSeedFor searches for an operator seed that makes bet id resolve
// to want under the engine's current statistics.
func operatorSeedFor(t *testing.T, f *fixture, id uint64, want settlement.Outcome) [32]byte {
	t.Helper()

	bet, err := f.engine.Bet(id)
	require.NoError(t, err)

	serverSeed := common.Hash{}
	_, _ = fillReader(7).Read(serverSeed[:])
	betID := uint256.NewInt(id).Bytes32()

	for i := uint64(0); i < 10_000; i++ {
		op := uint256.NewInt(i).Bytes32()
		seed := crypto.Keccak256Hash(serverSeed[:], op[:], betID[:])

		res, err := settlement.Resolve(bet.Mode, bet.Stake, seed, f.engine.Stats(), settlement.DefaultParams())
		require.NoError(t, err)

		if res.Outcome == want {
			return op
		}
	}

	t.Fatalf("no operator seed resolves bet %d to %s", id, want)

	return [32]byte{}
}

func TestEngine_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	id := f.place(t, settlement.Paper, 100)
	require.Equal(t, uint64(0), id)

	calls := f.port.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, tokenstest.Call{Owner: player, To: vault, Amount: amt(100), Token: wld}, calls[0])

	bet, err := f.engine.Bet(id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, bet.Status)
	require.Equal(t, player, bet.Player)
	require.Equal(t, settlement.Paper, bet.Mode)
	require.Equal(t, uint64(100), bet.Stake.Uint64())
	require.Equal(t, common.Hash{}, bet.ServerSeed)

	stats := f.treasury.GameStats(engineID, wld)
	require.Equal(t, uint64(100), stats.TotalDeposits.Uint64())

	seed := uint256.NewInt(42).Bytes32()

	settled, err := f.engine.SettleBet(owner, id, seed)
	require.NoError(t, err)
	require.Equal(t, StatusSettled, settled.Status)
	require.Equal(t, settlement.OutcomeOf(settled.Stake, settled.Payout), settled.Outcome)
	require.Equal(t, bet.Commitment, crypto.Keccak256Hash(settled.ServerSeed[:]))

	withdrawn := f.rec.OfType(events.TypeTokensWithdrawn)
	if settled.Payout.IsZero() {
		require.Empty(t, withdrawn)
	} else {
		require.Equal(t, []events.Event{events.TokensWithdrawn{
			Caller:    engineID,
			Recipient: player,
			Asset:     wld,
			Amount:    settled.Payout,
		}}, withdrawn)
	}

	_, err = f.engine.SettleBet(owner, id, uint256.NewInt(7).Bytes32())
	require.ErrorIs(t, err, ErrAlreadySettled)

	again, err := f.engine.Bet(id)
	require.NoError(t, err)
	require.Equal(t, settled, again)
	require.Equal(t, uint64(1), f.engine.Stats().Bets)
}

func TestEngine_PlaceBetRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		mode    settlement.Mode
		stake   uint64
		mutate  func(p *tokens.Permit, d *tokens.TransferDetails)
		sig     []byte
		wantErr error
	}{
		{
			name:    "invalid mode",
			mode:    settlement.Mode(4),
			stake:   100,
			wantErr: ErrInvalidMode,
		},
		{
			name:    "invalid mode wins over closed game",
			setup:   func(t *testing.T, f *fixture) { require.NoError(t, f.engine.SetLive(owner, false)) },
			mode:    settlement.Mode(0),
			stake:   100,
			wantErr: ErrInvalidMode,
		},
		{
			name:    "permitted amount above ceiling",
			mode:    settlement.Rock,
			stake:   1_001,
			wantErr: ErrBetTooLarge,
		},
		{
			name:  "permitted amount checked not requested",
			mode:  settlement.Rock,
			stake: 100,
			mutate: func(p *tokens.Permit, _ *tokens.TransferDetails) {
				p.Permitted.Amount = amt(5_000)
			},
			wantErr: ErrBetTooLarge,
		},
		{
			name:    "no ceiling for asset",
			setup:   func(t *testing.T, f *fixture) { require.NoError(t, f.engine.SetMaxBetAmount(owner, wld, nil)) },
			mode:    settlement.Rock,
			stake:   1,
			wantErr: ErrBetTooLarge,
		},
		{
			name:    "too large wins over closed game",
			setup:   func(t *testing.T, f *fixture) { require.NoError(t, f.engine.SetLive(owner, false)) },
			mode:    settlement.Rock,
			stake:   2_000,
			wantErr: ErrBetTooLarge,
		},
		{
			name:    "game not live",
			setup:   func(t *testing.T, f *fixture) { require.NoError(t, f.engine.SetLive(owner, false)) },
			mode:    settlement.Rock,
			stake:   100,
			wantErr: ErrGameNotLive,
		},
		{
			name:  "recipient is not the treasury",
			mode:  settlement.Rock,
			stake: 100,
			mutate: func(_ *tokens.Permit, d *tokens.TransferDetails) {
				d.To = stranger
			},
			wantErr: tokens.ErrTransferFailed,
		},
		{
			name:    "bad signature",
			mode:    settlement.Rock,
			stake:   100,
			sig:     []byte("nope"),
			wantErr: tokens.ErrTransferFailed,
		},
		{
			name:  "insufficient player balance",
			setup: func(t *testing.T, f *fixture) { require.NoError(t, f.engine.SetMaxBetAmount(owner, wld, amt(50_000))) },
			mode:  settlement.Rock,
			stake: 20_000,
			// player holds 10_000
			wantErr: tokens.ErrInsufficientBalance,
		},
		{
			name: "engine not authorized",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.treasury.Registry().SetAuthorizedContract(owner, engineID, false))
			},
			mode:    settlement.Rock,
			stake:   100,
			wantErr: treasury.ErrNotAuthorizedCaller,
		},
		{
			name:    "zero stake",
			mode:    settlement.Rock,
			stake:   0,
			wantErr: treasury.ErrZeroAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
				f.rec.Reset()
			}

			permit, details := f.permit(tt.stake)
			if tt.mutate != nil {
				tt.mutate(&permit, &details)
			}

			sig := tt.sig
			if sig == nil {
				sig = tokenstest.Sentinel
			}

			_, err := f.engine.PlaceBet(player, tt.mode, permit, details, sig)
			require.ErrorIs(t, err, tt.wantErr)

			require.Zero(t, f.engine.BetCount())
			require.Empty(t, f.port.Calls())
			require.Empty(t, f.rec.Events())
			require.Equal(t, uint64(10_000), f.bank.BalanceOf(wld, player).Uint64())
			require.True(t, f.treasury.GameStats(engineID, wld).TotalDeposits.IsZero())
		})
	}
}

func TestEngine_PlaceBetEntropyFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithEntropy(failingReader{}))

	permit, details := f.permit(100)

	_, err := f.engine.PlaceBet(player, settlement.Rock, permit, details, tokenstest.Sentinel)
	require.ErrorIs(t, err, ErrEntropyUnavailable)
	require.Zero(t, f.engine.BetCount())
	require.Equal(t, uint64(10_000), f.bank.BalanceOf(wld, player).Uint64())
}

func TestEngine_PlaceBetEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	id := f.place(t, settlement.Scissors, 250)

	bet, err := f.engine.Bet(id)
	require.NoError(t, err)

	require.Equal(t, []events.Event{
		events.TokensDeposited{Caller: engineID, Asset: wld, Amount: amt(250)},
		events.BetPlaced{
			BetID:      id,
			Player:     player,
			Mode:       uint8(settlement.Scissors),
			Asset:      wld,
			Stake:      amt(250),
			Commitment: bet.Commitment,
		},
	}, f.rec.Events())
}

func TestEngine_SequentialIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	for want := uint64(0); want < 5; want++ {
		require.Equal(t, want, f.place(t, settlement.Rock, 10))
	}

	require.Equal(t, uint64(5), f.engine.BetCount())
}

func TestEngine_SettleRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.place(t, settlement.Rock, 100)

	_, err := f.engine.SettleBet(stranger, id, [32]byte{})
	require.ErrorIs(t, err, access.ErrUnauthorized)

	_, err = f.engine.SettleBet(owner, id+1, [32]byte{})
	require.ErrorIs(t, err, ErrBetNotFound)

	bet, err := f.engine.Bet(id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, bet.Status)
	require.Zero(t, f.engine.Stats().Bets)
}

func TestEngine_OperatorCanSettle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.place(t, settlement.Rock, 100)

	require.ErrorIs(t, f.engine.SetOperator(operator, operator, true), access.ErrUnauthorized)
	require.NoError(t, f.engine.SetOperator(owner, operator, true))
	require.True(t, f.engine.IsOperator(operator))
	require.True(t, f.engine.IsOperator(owner))

	_, err := f.engine.SettleBet(operator, id, [32]byte{1})
	require.NoError(t, err)

	require.NoError(t, f.engine.SetOperator(owner, operator, false))
	require.False(t, f.engine.IsOperator(operator))

	id = f.place(t, settlement.Rock, 100)
	_, err = f.engine.SettleBet(operator, id, [32]byte{1})
	require.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestEngine_SettleWinPaysOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.place(t, settlement.Rock, 100)
	seed := operatorSeedFor(t, f, id, settlement.OutcomeWin)
	f.rec.Reset()

	bet, err := f.engine.SettleBet(owner, id, seed)
	require.NoError(t, err)
	require.Equal(t, settlement.OutcomeWin, bet.Outcome)
	require.Equal(t, uint64(196), bet.Payout.Uint64())
	require.Equal(t, uint64(10_000-100+196), f.bank.BalanceOf(wld, player).Uint64())

	stats := f.treasury.GameStats(engineID, wld)
	require.Equal(t, uint64(100), stats.TotalDeposits.Uint64())
	require.Equal(t, uint64(196), stats.TotalWithdrawals.Uint64())

	settled := f.rec.OfType(events.TypeBetSettled)
	require.Len(t, settled, 1)
	ev := settled[0].(events.BetSettled)
	require.Equal(t, "win", ev.Outcome)
	require.Equal(t, uint64(196), ev.Payout.Uint64())
	require.Equal(t, f.engine.ExplosionRate(), ev.ExplosionRateBps)
}

func TestEngine_SettleLossPaysNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.place(t, settlement.Paper, 100)
	seed := operatorSeedFor(t, f, id, settlement.OutcomeLoss)
	f.rec.Reset()

	bet, err := f.engine.SettleBet(owner, id, seed)
	require.NoError(t, err)
	require.True(t, bet.Payout.IsZero())
	require.Empty(t, f.rec.OfType(events.TypeTokensWithdrawn))
	require.True(t, f.treasury.GameStats(engineID, wld).TotalWithdrawals.IsZero())
	require.Equal(t, uint64(1), f.engine.Stats().Losses)
}

func TestEngine_FailedPayoutLeavesBetPending(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sabotage func(t *testing.T, f *fixture)
		wantErr  error
	}{
		{
			name: "treasury drained",
			sabotage: func(t *testing.T, f *fixture) {
				require.NoError(t, f.treasury.EmergencyWithdraw(owner, wld, f.treasury.Balance(wld), owner))
			},
			wantErr: treasury.ErrInsufficientTreasuryBalance,
		},
		{
			name:     "transfer fails",
			sabotage: func(_ *testing.T, f *fixture) { f.port.FailNext(errors.New("token paused")) },
			wantErr:  tokens.ErrTransferFailed,
		},
		{
			name: "engine deauthorized",
			sabotage: func(t *testing.T, f *fixture) {
				require.NoError(t, f.treasury.Registry().SetAuthorizedContract(owner, engineID, false))
			},
			wantErr: treasury.ErrNotAuthorizedCaller,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			id := f.place(t, settlement.Scissors, 100)
			seed := operatorSeedFor(t, f, id, settlement.OutcomeWin)

			tt.sabotage(t, f)
			statsBefore := f.engine.Stats()
			f.rec.Reset()

			_, err := f.engine.SettleBet(owner, id, seed)
			require.ErrorIs(t, err, tt.wantErr)

			bet, err := f.engine.Bet(id)
			require.NoError(t, err)
			require.Equal(t, StatusPending, bet.Status)
			require.Nil(t, bet.Payout)
			require.Equal(t, statsBefore, f.engine.Stats())
			require.Empty(t, f.rec.Events())
		})
	}
}

func TestEngine_Admin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.ErrorIs(t, f.engine.SetLive(stranger, false), access.ErrUnauthorized)
	require.ErrorIs(t, f.engine.SetMaxBetAmount(stranger, wld, amt(1)), access.ErrUnauthorized)
	_, err := f.engine.ToggleLive(stranger)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	require.Empty(t, f.rec.Events())

	live, err := f.engine.ToggleLive(owner)
	require.NoError(t, err)
	require.False(t, live)
	require.False(t, f.engine.IsLive())

	require.NoError(t, f.engine.SetMaxBetAmount(owner, wld, amt(77)))
	require.Equal(t, uint64(77), f.engine.MaxBetAmount(wld).Uint64())

	require.Equal(t, []events.Event{
		events.GameLiveToggled{Live: false},
		events.MaxBetAmountSet{Asset: wld, Amount: amt(77)},
	}, f.rec.Events())
}

func TestEngine_SettleWhileClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.place(t, settlement.Rock, 100)
	require.NoError(t, f.engine.SetLive(owner, false))

	bet, err := f.engine.SettleBet(owner, id, [32]byte{9})
	require.NoError(t, err)
	require.Equal(t, StatusSettled, bet.Status)
}

func TestEngine_OutcomeConsistency(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.bank.Mint(wld, player, amt(1_000_000)))

	for i := 0; i < 300; i++ {
		id := f.place(t, settlement.Mode(i%3+1), 10+uint64(i%7))

		bet, err := f.engine.SettleBet(owner, id, uint256.NewInt(uint64(i)).Bytes32())
		require.NoError(t, err)

		switch bet.Outcome {
		case settlement.OutcomeLoss:
			require.True(t, bet.Payout.IsZero())
		case settlement.OutcomeDraw:
			require.True(t, bet.Payout.Eq(bet.Stake))
		case settlement.OutcomeWin:
			require.True(t, bet.Payout.Gt(bet.Stake))
		default:
			t.Fatalf("unexpected outcome %q", bet.Outcome)
		}
	}

	stats := f.engine.Stats()
	require.Equal(t, uint64(300), stats.Bets)
	require.Equal(t, stats.Bets, stats.Wins+stats.Draws+stats.Losses)

	// every unit that moved is accounted for by the treasury
	gs := f.treasury.GameStats(engineID, wld)
	exposure, negative := gs.Exposure()
	bankroll := f.treasury.Balance(wld)
	if negative {
		require.Equal(t, new(uint256.Int).Sub(amt(100_000), exposure), bankroll)
	} else {
		require.Equal(t, new(uint256.Int).Add(amt(100_000), exposure), bankroll)
	}
}

func TestEngine_Concurrency(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.bank.Mint(wld, player, amt(1_000_000)))

	const workers, perWorker = 8, 25

	// permits are built up front so nonces stay unique
	type req struct {
		permit  tokens.Permit
		details tokens.TransferDetails
	}

	reqs := make([]req, workers*perWorker)
	for i := range reqs {
		reqs[i].permit, reqs[i].details = f.permit(10)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r := reqs[w*perWorker+i]
				id, err := f.engine.PlaceBet(player, settlement.Paper, r.permit, r.details, tokenstest.Sentinel)
				if err != nil {
					t.Errorf("place bet: %v", err)
					return
				}
				_, err = f.engine.SettleBet(owner, id, uint256.NewInt(id).Bytes32())
				if err != nil {
					t.Errorf("settle bet %d: %v", id, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, uint64(workers*perWorker), f.engine.BetCount())
	require.Equal(t, uint64(workers*perWorker), f.engine.Stats().Bets)

	gs := f.treasury.GameStats(engineID, wld)
	require.Equal(t, uint64(workers*perWorker*10), gs.TotalDeposits.Uint64())
}

func TestNew_InvalidParams(t *testing.T) {
	t.Parallel()

	p := settlement.DefaultParams()
	p.WinMultiplierBps = settlement.BasisPoints

	_, err := New(Config{Params: p}, nil, nil, nil)
	require.Error(t, err)
}
