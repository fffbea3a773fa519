package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/solsnipe/internal/config"
	"github.com/dushixiang/solsnipe/internal/events"
	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/dushixiang/solsnipe/internal/repo"
	"github.com/dushixiang/solsnipe/internal/xe"
	"github.com/dushixiang/solsnipe/pkg/feed"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestTrader(t *testing.T) (*TraderService, *LedgerService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()
	bus := events.NewBus(logger)
	conf := &config.Config{
		Trading: config.TradingConf{
			WalletAddress: "bot",
			Network:       "devnet",
		},
	}

	ledger := NewLedgerService(logger, db, bus, 0,
		repo.NewPortfolioRepo(db), repo.NewPositionRepo(db), repo.NewTradeRepo(db),
		repo.NewRiskPolicyRepo(db), repo.NewActivityRepo(db))
	strategy := newDeterministicRules(0.5)
	pump := feed.NewPumpPortalClient("", logger)
	trader := NewTraderService(logger, db, conf, bus,
		ledger, strategy, pump, nil,
		repo.NewTokenRepo(db), repo.NewPositionRepo(db))
	return trader, ledger, db
}

func saveToken(t *testing.T, db *gorm.DB, token models.Token) models.Token {
	t.Helper()
	if token.ID == "" {
		token.ID = ulid.Make().String()
	}
	if err := db.Create(&token).Error; err != nil {
		t.Fatalf("save token: %v", err)
	}
	return token
}

func TestTrader_StartStop(t *testing.T) {
	trader, _, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !trader.IsRunning() {
		t.Fatal("trader should be running")
	}
	if err := trader.Start(ctx); err != xe.ErrTraderAlreadyRunning {
		t.Fatalf("second start err = %v, want already running", err)
	}
	if err := trader.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := trader.Stop(); err != xe.ErrTraderNotRunning {
		t.Fatalf("second stop err = %v, want not running", err)
	}
}

func TestTrader_StartCreatesPolicyWithTraderLimits(t *testing.T) {
	trader, ledger, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	policy, err := ledger.GetRiskPolicy(ctx, "bot")
	if err != nil {
		t.Fatalf("policy not created: %v", err)
	}
	if !approx(policy.DailyLimit, 10) || !approx(policy.MaxTradeSize, 0.5) {
		t.Fatalf("policy limits = %v/%v, want 10/0.5", policy.DailyLimit, policy.MaxTradeSize)
	}
}

func TestTrader_BuysFreshToken(t *testing.T) {
	trader, ledger, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := models.Token{
		Address:    "mint1",
		Symbol:     "$MOON",
		Liquidity:  25,
		Holders:    60,
		Risk:       models.RiskSafe,
		Price:      0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	trader.handleNewToken(ctx, token)

	status := trader.GetStatus()
	if status.PositionCount != 1 {
		t.Fatalf("positions = %d, want 1", status.PositionCount)
	}
	// 高分买入 0.15 SOL
	if !approx(status.DailySpent, 0.15) {
		t.Fatalf("daily spent = %v, want 0.15", status.DailySpent)
	}

	portfolio, err := ledger.GetPortfolio(ctx, "bot", "devnet")
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if !approx(portfolio.SolBalance, 9.85) {
		t.Fatalf("balance = %v, want 9.85", portfolio.SolBalance)
	}
	trades, _ := ledger.ListTrades(ctx, portfolio.ID, 10)
	if len(trades) != 1 || trades[0].Source != models.TradeSourceAuto {
		t.Fatalf("trades = %+v, want one auto buy", trades)
	}
}

func TestTrader_SkipsHeldToken(t *testing.T) {
	trader, _, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := models.Token{
		Address:    "mint1",
		Symbol:     "$MOON",
		Liquidity:  25,
		Holders:    60,
		Risk:       models.RiskSafe,
		Price:      0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	trader.handleNewToken(ctx, token)
	if trader.GetStatus().PositionCount != 1 {
		t.Fatal("expected first buy")
	}

	// 同一代币第二次推送被去重缓存挡下，直接清掉缓存验证持仓守卫
	trader.mutex.Lock()
	delete(trader.seenTokens, token.Address)
	trader.lastTradeTime = time.Time{}
	trader.mutex.Unlock()

	trader.handleNewToken(ctx, token)
	status := trader.GetStatus()
	if status.PositionCount != 1 {
		t.Fatalf("positions = %d, want still 1", status.PositionCount)
	}
	if !approx(status.DailySpent, 0.15) {
		t.Fatalf("daily spent = %v, want unchanged 0.15", status.DailySpent)
	}
}

func TestTrader_TradeCooldown(t *testing.T) {
	trader, _, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	first := models.Token{
		Address: "mint1", Symbol: "$AAA", Liquidity: 25, Holders: 60,
		Risk: models.RiskSafe, Price: 0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	second := first
	second.Address = "mint2"
	second.Symbol = "$BBB"

	trader.handleNewToken(ctx, first)
	trader.handleNewToken(ctx, second)

	// 15秒冷却期内第二笔被静默跳过
	if got := trader.GetStatus().PositionCount; got != 1 {
		t.Fatalf("positions = %d, want 1 (cooldown)", got)
	}
}

func TestTrader_DangerTokenBlocked(t *testing.T) {
	trader, ledger, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := models.Token{
		Address:    "rugmint",
		Symbol:     "$RUG",
		Liquidity:  25,
		Holders:    60,
		Risk:       models.RiskDanger,
		Price:      0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	}
	trader.handleNewToken(ctx, token)

	if got := trader.GetStatus().PositionCount; got != 0 {
		t.Fatalf("positions = %d, want 0 (blocked)", got)
	}
	portfolio, err := ledger.GetPortfolio(ctx, "bot", "devnet")
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if portfolio.RugsAvoided != 1 {
		t.Fatalf("rugs avoided = %d, want 1", portfolio.RugsAvoided)
	}
}

func TestTrader_ProfitLadder2x(t *testing.T) {
	trader, ledger, db := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := saveToken(t, db, models.Token{
		Address: "mint1", Symbol: "$MOON", Liquidity: 25, Holders: 60,
		Risk: models.RiskSafe, Price: 0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	})
	trader.handleNewToken(ctx, token)
	if trader.GetStatus().PositionCount != 1 {
		t.Fatal("expected buy")
	}

	// 价格翻2.5倍后巡检应触发2x档位卖出25%
	if err := db.Table("tokens").Where("address = ?", token.Address).
		Update("price", 0.0000025).Error; err != nil {
		t.Fatalf("bump price: %v", err)
	}
	trader.checkPositions(ctx)

	portfolio, _ := ledger.GetPortfolio(ctx, "bot", "devnet")
	trades, _ := ledger.ListTrades(ctx, portfolio.ID, 10)
	var sell *models.Trade
	for i := range trades {
		if trades[i].Side == "sell" {
			sell = &trades[i]
		}
	}
	if sell == nil {
		t.Fatal("expected a profit-take sell")
	}
	if sell.Source != models.TradeSourceProfitTake {
		t.Fatalf("source = %s, want profit-take", sell.Source)
	}
	if !approx(sell.Multiplier, 2.5) {
		t.Fatalf("multiplier = %v, want 2.5", sell.Multiplier)
	}

	// 卖出25%，持仓保留
	status := trader.GetStatus()
	if status.PositionCount != 1 {
		t.Fatalf("positions = %d, want 1 remaining", status.PositionCount)
	}
}

func TestTrader_StopLossOnCrash(t *testing.T) {
	trader, ledger, db := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := saveToken(t, db, models.Token{
		Address: "mint1", Symbol: "$MOON", Liquidity: 25, Holders: 60,
		Risk: models.RiskSafe, Price: 0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	})
	trader.handleNewToken(ctx, token)

	// 价格腰斩触发全仓止损
	if err := db.Table("tokens").Where("address = ?", token.Address).
		Update("price", 0.0000004).Error; err != nil {
		t.Fatalf("crash price: %v", err)
	}
	trader.checkPositions(ctx)

	if got := trader.GetStatus().PositionCount; got != 0 {
		t.Fatalf("positions = %d, want 0 after stop loss", got)
	}
	portfolio, _ := ledger.GetPortfolio(ctx, "bot", "devnet")
	positions, _ := ledger.ListPositions(ctx, portfolio.ID)
	if len(positions) != 0 {
		t.Fatalf("db positions = %d, want 0", len(positions))
	}
	trades, _ := ledger.ListTrades(ctx, portfolio.ID, 10)
	found := false
	for _, trade := range trades {
		if trade.Side == "sell" && trade.Source == models.TradeSourceStopLoss {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a stop-loss sell")
	}
}

func TestTrader_DeadTokenDumped(t *testing.T) {
	trader, ledger, db := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := saveToken(t, db, models.Token{
		Address: "mint1", Symbol: "$MOON", Liquidity: 25, Holders: 60,
		Risk: models.RiskSafe, Price: 0.000001,
		LaunchedAt: time.Now().Add(-30 * time.Second),
	})
	trader.handleNewToken(ctx, token)

	// 建仓时间拨回6分钟前，价格仍停在建仓价
	trader.mutex.Lock()
	trader.positions[token.Address].entryTime = time.Now().Add(-6 * time.Minute)
	trader.mutex.Unlock()

	trader.checkPositions(ctx)

	if got := trader.GetStatus().PositionCount; got != 0 {
		t.Fatalf("positions = %d, want 0 after dump", got)
	}
	portfolio, _ := ledger.GetPortfolio(ctx, "bot", "devnet")
	trades, _ := ledger.ListTrades(ctx, portfolio.ID, 10)
	var sell *models.Trade
	for i := range trades {
		if trades[i].Side == "sell" {
			sell = &trades[i]
		}
	}
	if sell == nil {
		t.Fatal("expected a dump sell")
	}
	if sell.Source != models.TradeSourceStopLoss {
		t.Fatalf("source = %s, want stop-loss", sell.Source)
	}
	// 五折价离场
	if !approx(sell.Price, 0.0000005) {
		t.Fatalf("exit price = %v, want half entry", sell.Price)
	}
}

func TestTrader_OpportunityFastPath(t *testing.T) {
	trader, ledger, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := models.Token{
		Address: "mint1", Symbol: "$MOON", Liquidity: 60, Holders: 0,
		Risk: models.RiskSafe, Price: 0.000001,
		LaunchedAt: time.Now().Add(-2 * time.Minute),
	}
	opportunity := models.Opportunity{
		ID:              ulid.Make().String(),
		TokenAddress:    token.Address,
		Type:            "new_launch",
		Score:           85,
		SuggestedAction: "buy",
		SuggestedSize:   0.1,
		ExpiresAt:       time.Now().Add(5 * time.Minute),
	}
	trader.handleOpportunity(ctx, opportunity, token)

	status := trader.GetStatus()
	if status.PositionCount != 1 {
		t.Fatalf("positions = %d, want 1", status.PositionCount)
	}
	portfolio, _ := ledger.GetPortfolio(ctx, "bot", "devnet")
	trades, _ := ledger.ListTrades(ctx, portfolio.ID, 10)
	if len(trades) != 1 || !approx(trades[0].Value, 0.1) {
		t.Fatalf("trades = %+v, want one 0.1 SOL buy", trades)
	}
}

func TestTrader_LowScoreOpportunityIgnored(t *testing.T) {
	trader, _, _ := newTestTrader(t)
	ctx := context.Background()

	if err := trader.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer trader.Stop()

	token := models.Token{Address: "mint1", Symbol: "$MEH", Price: 0.000001}
	opportunity := models.Opportunity{
		TokenAddress:    token.Address,
		Score:           55,
		SuggestedAction: "buy",
	}
	trader.handleOpportunity(ctx, opportunity, token)
	if got := trader.GetStatus().PositionCount; got != 0 {
		t.Fatalf("positions = %d, want 0", got)
	}

	watch := models.Opportunity{
		TokenAddress:    token.Address,
		Score:           90,
		SuggestedAction: "watch",
	}
	trader.handleOpportunity(ctx, watch, token)
	if got := trader.GetStatus().PositionCount; got != 0 {
		t.Fatalf("positions = %d, want 0 for watch action", got)
	}
}
