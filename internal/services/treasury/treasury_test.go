package treasury

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/services/access"
	"github.com/fastprodman/wagerhouse/internal/tokens"
	"github.com/fastprodman/wagerhouse/internal/tokens/memory"
	"github.com/fastprodman/wagerhouse/internal/tokens/tokenstest"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000002")
	player   = common.HexToAddress("0x0000000000000000000000000000000000000003")
	vault    = common.HexToAddress("0xf56F5D348ad4bc29e0885550250Cb1B1a919834c")
	game     = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	wld      = common.HexToAddress("0x2cFc85d8E48F8EAB294be644d9E25C3030863003")
	usdc     = common.HexToAddress("0x79A02482A880bCE3F13e09Da970dC34db4CD24d1")
)

type fixture struct {
	treasury *Treasury
	bank     *memory.Bank
	port     *tokenstest.RecordingPort
	rec      *events.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	rec := new(events.Recorder)
	bank := memory.New(tokens.Domain{ChainID: 1})
	port := tokenstest.NewRecordingPort(bank)
	registry := access.New(owner, rec)

	return fixture{
		treasury: New(vault, registry, port, rec),
		bank:     bank,
		port:     port,
		rec:      rec,
	}
}

func (f fixture) enable(t *testing.T, caller, asset common.Address) {
	t.Helper()

	require.NoError(t, f.treasury.Registry().SetAuthorizedContract(owner, caller, true))
	require.NoError(t, f.treasury.Registry().SetAcceptedToken(owner, asset, true))
	f.rec.Reset()
}

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestTreasury_DepositScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enable(t, game, wld)
	require.NoError(t, f.bank.Mint(wld, game, amt(1000)))

	require.NoError(t, f.treasury.Deposit(game, wld, amt(1000)))

	stats := f.treasury.GameStats(game, wld)
	require.Equal(t, uint64(1000), stats.TotalDeposits.Uint64())
	require.True(t, stats.TotalWithdrawals.IsZero())
	require.Equal(t, uint64(1000), f.treasury.Balance(wld).Uint64())
	require.Equal(t, []events.Event{
		events.TokensDeposited{Caller: game, Asset: wld, Amount: amt(1000)},
	}, f.rec.Events())
}

func TestTreasury_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  common.Address
		asset   common.Address
		amount  uint64
		wantErr error
	}{
		{name: "unauthorized_caller", caller: stranger, asset: wld, amount: 100, wantErr: ErrNotAuthorizedCaller},
		{name: "unauthorized_caller_unaccepted_asset", caller: stranger, asset: usdc, amount: 100, wantErr: ErrNotAuthorizedCaller},
		{name: "unaccepted_asset", caller: game, asset: usdc, amount: 100, wantErr: ErrTokenNotAccepted},
		{name: "zero_amount", caller: game, asset: wld, amount: 0, wantErr: ErrZeroAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.enable(t, game, wld)
			require.NoError(t, f.bank.Mint(tt.asset, tt.caller, amt(1000)))
			require.NoError(t, f.bank.Mint(tt.asset, vault, amt(1000)))

			err := f.treasury.Deposit(tt.caller, tt.asset, amt(tt.amount))
			require.ErrorIs(t, err, tt.wantErr)

			err = f.treasury.Withdraw(tt.caller, tt.asset, amt(tt.amount), player)
			require.ErrorIs(t, err, tt.wantErr)

			stats := f.treasury.GameStats(tt.caller, tt.asset)
			require.True(t, stats.TotalDeposits.IsZero())
			require.True(t, stats.TotalWithdrawals.IsZero())
			require.Equal(t, uint64(1000), f.bank.BalanceOf(tt.asset, tt.caller).Uint64())
			require.Equal(t, uint64(1000), f.treasury.Balance(tt.asset).Uint64())
			require.Empty(t, f.rec.Events())
		})
	}
}

func TestTreasury_TransferFailureLeavesStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enable(t, game, wld)
	require.NoError(t, f.bank.Mint(wld, game, amt(50)))

	// not enough funds at the caller
	err := f.treasury.Deposit(game, wld, amt(100))
	require.ErrorIs(t, err, tokens.ErrTransferFailed)
	require.ErrorIs(t, err, tokens.ErrInsufficientBalance)

	// collaborator failure
	f.port.FailNext(errors.New("rpc down"))
	err = f.treasury.Deposit(game, wld, amt(10))
	require.ErrorIs(t, err, tokens.ErrTransferFailed)
	f.port.FailNext(nil)

	// a pull that fails with a plain error is still reported as a transfer failure
	err = f.treasury.DepositVia(game, wld, amt(10), func() error { return errors.New("boom") })
	require.ErrorIs(t, err, tokens.ErrTransferFailed)

	require.True(t, f.treasury.GameStats(game, wld).TotalDeposits.IsZero())
	require.Empty(t, f.rec.Events())
}

func TestTreasury_Withdraw(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enable(t, game, wld)
	require.NoError(t, f.bank.Mint(wld, game, amt(100)))
	require.NoError(t, f.treasury.Deposit(game, wld, amt(100)))
	f.rec.Reset()

	require.NoError(t, f.treasury.Withdraw(game, wld, amt(100), player))

	require.Equal(t, uint64(100), f.treasury.GameStats(game, wld).TotalWithdrawals.Uint64())
	require.Equal(t, uint64(100), f.bank.BalanceOf(wld, player).Uint64())
	require.Equal(t, []events.Event{
		events.TokensWithdrawn{Caller: game, Recipient: player, Asset: wld, Amount: amt(100)},
	}, f.rec.Events())

	err := f.treasury.Withdraw(game, wld, amt(1), player)
	require.ErrorIs(t, err, ErrInsufficientTreasuryBalance)
	require.Equal(t, uint64(100), f.treasury.GameStats(game, wld).TotalWithdrawals.Uint64())
}

func TestTreasury_StatsSumOnlySuccessfulCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enable(t, game, wld)
	require.NoError(t, f.bank.Mint(wld, game, amt(500)))

	ops := []struct {
		deposit bool
		amount  uint64
	}{
		{true, 200}, {false, 50}, {true, 400}, {false, 500}, {true, 300}, {false, 150}, {false, 0}, {true, 0},
	}

	var wantDeposits, wantWithdrawals uint64
	for _, op := range ops {
		var err error
		if op.deposit {
			err = f.treasury.Deposit(game, wld, amt(op.amount))
			if err == nil {
				wantDeposits += op.amount
			}
		} else {
			err = f.treasury.Withdraw(game, wld, amt(op.amount), player)
			if err == nil {
				wantWithdrawals += op.amount
			}
		}
	}

	stats := f.treasury.GameStats(game, wld)
	require.Equal(t, wantDeposits, stats.TotalDeposits.Uint64())
	require.Equal(t, wantWithdrawals, stats.TotalWithdrawals.Uint64())
	// 200 in, 50 out, 400 fails (only 300 left at the caller), 500 fails, 300 in, 150 out
	require.Equal(t, uint64(500), wantDeposits)
	require.Equal(t, uint64(200), wantWithdrawals)
}

func TestTreasury_OverflowFailsInsteadOfWrapping(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enable(t, game, wld)
	require.NoError(t, f.bank.Mint(wld, game, amt(10)))

	maxU := new(uint256.Int).SetAllOne()
	f.treasury.stats[statsKey{caller: game, asset: wld}] = gameStats{deposits: *maxU}

	err := f.treasury.Deposit(game, wld, amt(1))
	require.ErrorIs(t, err, ErrAmountOverflow)

	require.Equal(t, maxU, f.treasury.GameStats(game, wld).TotalDeposits)
	require.Equal(t, uint64(10), f.bank.BalanceOf(wld, game).Uint64())
}

func TestTreasury_EmergencyWithdraw(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// Funds sent straight to the treasury; the asset is not even accepted.
	require.NoError(t, f.bank.Mint(usdc, vault, amt(50)))

	err := f.treasury.EmergencyWithdraw(stranger, usdc, amt(50), player)
	require.ErrorIs(t, err, access.ErrUnauthorized)

	err = f.treasury.EmergencyWithdraw(owner, usdc, amt(51), player)
	require.ErrorIs(t, err, ErrInsufficientTreasuryBalance)

	require.NoError(t, f.treasury.EmergencyWithdraw(owner, usdc, amt(50), player))
	require.Equal(t, uint64(50), f.bank.BalanceOf(usdc, player).Uint64())
	require.True(t, f.treasury.GameStats(owner, usdc).TotalWithdrawals.IsZero())
	require.Equal(t, []events.Event{
		events.EmergencyWithdrawn{Asset: usdc, Amount: amt(50), Recipient: player},
	}, f.rec.Events())
}

func TestTreasury_ConcurrentCallersStayConsistent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	callers := []common.Address{game, common.HexToAddress("0xe2"), common.HexToAddress("0xe3")}
	for _, c := range callers {
		f.enable(t, c, wld)
		f.enable(t, c, usdc)
		require.NoError(t, f.bank.Mint(wld, c, amt(10_000)))
		require.NoError(t, f.bank.Mint(usdc, c, amt(10_000)))
	}

	const rounds = 200

	var wg sync.WaitGroup
	for _, c := range callers {
		for _, asset := range []common.Address{wld, usdc} {
			wg.Add(1)
			go func(c, asset common.Address) {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					if err := f.treasury.Deposit(c, asset, amt(5)); err != nil {
						t.Errorf("deposit: %v", err)
						return
					}
					if err := f.treasury.Withdraw(c, asset, amt(2), player); err != nil {
						t.Errorf("withdraw: %v", err)
						return
					}
				}
			}(c, asset)
		}
	}
	wg.Wait()

	for _, c := range callers {
		for _, asset := range []common.Address{wld, usdc} {
			stats := f.treasury.GameStats(c, asset)
			require.Equal(t, uint64(5*rounds), stats.TotalDeposits.Uint64())
			require.Equal(t, uint64(2*rounds), stats.TotalWithdrawals.Uint64())

			exposure, negative := stats.Exposure()
			require.False(t, negative)
			require.Equal(t, uint64(3*rounds), exposure.Uint64())
		}
	}

	want := uint64(len(callers) * 3 * rounds)
	require.Equal(t, want, f.treasury.Balance(wld).Uint64())
	require.Equal(t, want, f.treasury.Balance(usdc).Uint64())
}
