package usecase

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
)

func newTestPositionManager(repo *fakeTradeRepo, exec *fakeExecutor) *PositionManager {
	return NewPositionManager(repo, exec, &fakePublisher{}, zap.NewNop(), 0.05, 0.03, 0.01)
}

func TestBuildPositionSnapshot(t *testing.T) {
	trades := []*domain.Trade{
		{Price: 100, Amount: 1},
		{Price: 90, Amount: 1},
		{Price: 80, Amount: 2},
	}
	snap, ok := BuildPositionSnapshot(trades, 99)
	if !ok {
		t.Fatal("expected a valid snapshot")
	}
	if snap.TotalAmount != 4 {
		t.Errorf("TotalAmount = %g, want 4", snap.TotalAmount)
	}
	if snap.AvgPrice != 82.5 {
		t.Errorf("AvgPrice = %g, want 82.5", snap.AvgPrice)
	}
	wantProfit := (99 - 82.5) / 82.5
	if math.Abs(snap.ProfitPct-wantProfit) > 1e-12 {
		t.Errorf("ProfitPct = %g, want %g", snap.ProfitPct, wantProfit)
	}
}

func TestBuildPositionSnapshotZeroAmount(t *testing.T) {
	if _, ok := BuildPositionSnapshot([]*domain.Trade{{Price: 100, Amount: 0}}, 100); ok {
		t.Error("zero-amount lots must not produce a snapshot")
	}
	if _, ok := BuildPositionSnapshot(nil, 100); ok {
		t.Error("empty lot list must not produce a snapshot")
	}
}

func TestManageAveragesDownOnDrawdown(t *testing.T) {
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}
	pm := newTestPositionManager(repo, exec)

	// 4% down: inside tolerance, no action.
	acted, err := pm.Manage("BTCUSDT", 96)
	if err != nil {
		t.Fatal(err)
	}
	if acted || exec.callCount() != 0 {
		t.Fatalf("no action expected at -4%%, acted=%v calls=%d", acted, exec.callCount())
	}

	// 6% down: averaging-down entry.
	acted, err = pm.Manage("BTCUSDT", 94)
	if err != nil {
		t.Fatal(err)
	}
	if !acted {
		t.Error("averaging down must report an action")
	}
	call, ok := exec.lastCall()
	if !ok {
		t.Fatal("expected an averaging-down trade")
	}
	if call.Side != domain.SideBuy || call.Strategy != StrategyDCA {
		t.Errorf("got %s/%s, want BUY/%s", call.Side, call.Strategy, StrategyDCA)
	}
	if call.Price != 94 {
		t.Errorf("price = %g, want 94", call.Price)
	}
	if call.CloseAll != nil {
		t.Error("averaging down must not carry a close-all amount")
	}
}

func TestManageTrailingTakeProfit(t *testing.T) {
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}
	pm := newTestPositionManager(repo, exec)

	// +2%: below activation, nothing happens.
	if _, err := pm.Manage("BTCUSDT", 102); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 0 {
		t.Fatal("trailing stop must not act below activation")
	}

	// +4%: activated, peak tracks the price.
	if _, err := pm.Manage("BTCUSDT", 104); err != nil {
		t.Fatal(err)
	}
	// +6%: peak rises.
	if _, err := pm.Manage("BTCUSDT", 106); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 0 {
		t.Fatal("rising price must not trigger an exit")
	}

	// Retrace 1.13% from the 106 peak: exit fires with the full amount.
	acted, err := pm.Manage("BTCUSDT", 104.8)
	if err != nil {
		t.Fatal(err)
	}
	if !acted {
		t.Error("trailing exit must report an action")
	}
	call, ok := exec.lastCall()
	if !ok {
		t.Fatal("expected a trailing take-profit exit")
	}
	if call.Side != domain.SideSell || call.Strategy != StrategyTTP {
		t.Errorf("got %s/%s, want SELL/%s", call.Side, call.Strategy, StrategyTTP)
	}
	if call.CloseAll == nil || *call.CloseAll != 1 {
		t.Errorf("close-all amount = %v, want the whole 1", call.CloseAll)
	}
}

func TestManagePeakIsMonotonic(t *testing.T) {
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}
	pm := newTestPositionManager(repo, exec)

	for _, price := range []float64{106, 105.5, 105.9} {
		if _, err := pm.Manage("BTCUSDT", price); err != nil {
			t.Fatal(err)
		}
	}
	// Peak stayed at 106 through the dips; 105.9 is still within trail.
	if exec.callCount() != 0 {
		t.Fatal("drawdown below the trail must not close")
	}
	if _, err := pm.Manage("BTCUSDT", 104.9); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 1 {
		t.Fatalf("expected exit against the 106 peak, got %d calls", exec.callCount())
	}
}

func TestManageClearsPeakWhenFlat(t *testing.T) {
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}
	pm := newTestPositionManager(repo, exec)

	// Establish a 106 peak, then close the position externally.
	if _, err := pm.Manage("BTCUSDT", 106); err != nil {
		t.Fatal(err)
	}
	if err := repo.CloseOpenTrades("BTCUSDT"); err != nil {
		t.Fatal(err)
	}
	if _, err := pm.Manage("BTCUSDT", 106); err != nil {
		t.Fatal(err)
	}

	// New position at 100. If the stale 106 peak survived, 103.5 would be a
	// 2.4% drawdown and close immediately.
	repo.seedOpen("BTCUSDT", 100, 1)
	if _, err := pm.Manage("BTCUSDT", 103.5); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 0 {
		t.Error("stale peak leaked across positions")
	}
}

func TestManagePeakResetsAfterRestart(t *testing.T) {
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}

	pm := newTestPositionManager(repo, exec)
	if _, err := pm.Manage("BTCUSDT", 106); err != nil {
		t.Fatal(err)
	}

	// A fresh manager over the same ledger reseeds the peak from the average
	// entry, so the old 106 peak cannot fire an exit early.
	restarted := newTestPositionManager(repo, exec)
	if _, err := restarted.Manage("BTCUSDT", 104.8); err != nil {
		t.Fatal(err)
	}
	if exec.callCount() != 0 {
		t.Error("restart must not inherit the pre-restart peak")
	}
}

func TestManageDCAWinsOverTrailingStop(t *testing.T) {
	// With a sufficiently wide config both overlays could match; the
	// averaging-down branch must return first.
	repo := &fakeTradeRepo{}
	repo.seedOpen("BTCUSDT", 100, 1)
	exec := &fakeExecutor{}
	pm := NewPositionManager(repo, exec, &fakePublisher{}, zap.NewNop(), 0.05, -0.10, 0.01)

	if _, err := pm.Manage("BTCUSDT", 94); err != nil {
		t.Fatal(err)
	}
	call, ok := exec.lastCall()
	if !ok || call.Strategy != StrategyDCA {
		t.Errorf("expected the averaging-down entry to fire first, got %+v", call)
	}
}
