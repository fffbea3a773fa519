package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/solsnipe/internal/config"
	"github.com/dushixiang/solsnipe/internal/events"
	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/dushixiang/solsnipe/internal/repo"
	"github.com/dushixiang/solsnipe/internal/telegram"
	"github.com/dushixiang/solsnipe/internal/xe"
	"github.com/dushixiang/solsnipe/pkg/feed"
	"github.com/dushixiang/solsnipe/pkg/nostd"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultTickInterval = 10 * time.Second
	tradeCooldown       = 15 * time.Second
	seenTokenTTL        = 10 * time.Minute

	// 建仓超过5分钟仍无价格变动视为死币，按五折止损清仓
	deadTokenAge      = 5 * time.Minute
	deadTokenExitRate = 0.5

	stopLossMultiplier = 0.5
)

// profitTargets 阶梯止盈的卖出比例（0-1）
type profitTargets struct {
	at2x  float64
	at5x  float64
	at10x float64
}

// trackedPosition 自动交易在内存里跟踪的持仓
type trackedPosition struct {
	tokenAddress string
	tokenSymbol  string
	entryPrice   float64
	quantity     float64
	entryTime    time.Time
}

func NewTraderService(logger *zap.Logger, db *gorm.DB, conf *config.Config, bus *events.Bus,
	ledger *LedgerService, strategy Strategy, pump *feed.PumpPortalClient, tg *telegram.Telegram,
	tokenRepo *repo.TokenRepo, positionRepo *repo.PositionRepo) *TraderService {
	tickInterval := defaultTickInterval
	if conf.Trading.TickIntervalSecs > 0 {
		tickInterval = time.Duration(conf.Trading.TickIntervalSecs) * time.Second
	}
	network := conf.Trading.Network
	if network == "" {
		network = "devnet"
	}
	return &TraderService{
		Service:       orz.NewService(db),
		logger:        logger,
		conf:          conf,
		bus:           bus,
		ledger:        ledger,
		strategy:      strategy,
		pump:          pump,
		tg:            tg,
		tokenRepo:     tokenRepo,
		positionRepo:  positionRepo,
		walletAddress: conf.Trading.WalletAddress,
		network:       network,
		tickInterval:  tickInterval,
		dailyLimit:    10,
		maxTradeSize:  0.5,
		targets:       profitTargets{at2x: 0.25, at5x: 0.5, at10x: 1.0},
		seenTokens:    make(map[string]time.Time),
		positions:     make(map[string]*trackedPosition),
	}
}

// TraderService 自动交易代理
// 订阅新代币和机会事件做进场决策，定时巡检持仓做阶梯止盈和止损
type TraderService struct {
	*orz.Service
	logger *zap.Logger
	conf   *config.Config
	bus    *events.Bus

	ledger   *LedgerService
	strategy Strategy
	pump     *feed.PumpPortalClient
	tg       *telegram.Telegram

	tokenRepo    *repo.TokenRepo
	positionRepo *repo.PositionRepo

	walletAddress string
	network       string
	tickInterval  time.Duration

	mutex         sync.Mutex
	running       bool
	cancelFunc    context.CancelFunc
	dailyLimit    float64
	maxTradeSize  float64
	targets       profitTargets
	dailySpent    float64
	lastTradeTime time.Time
	seenTokens    map[string]time.Time
	positions     map[string]*trackedPosition
}

// Start 启动自动交易，加载风控参数和已有持仓后开始监听
func (s *TraderService) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return xe.ErrTraderAlreadyRunning
	}

	if err := s.loadState(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.running = true

	go s.consumeEvents(ctx)
	go s.consumeTrades(ctx)
	go s.tickLoop(ctx)

	s.logger.Info("autonomous trading started",
		zap.String("wallet", s.walletAddress),
		zap.Float64("daily_limit", s.dailyLimit),
		zap.Float64("daily_spent", s.dailySpent),
		zap.Int("positions", len(s.positions)))

	s.ledger.LogActivity(ctx, "", models.ActivityScan,
		"AI Trader activated - scanning for opportunities...", nil)
	return nil
}

// Stop 停止自动交易
func (s *TraderService) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return xe.ErrTraderNotRunning
	}
	s.cancelFunc()
	s.cancelFunc = nil
	s.running = false
	s.logger.Info("autonomous trading stopped")
	return nil
}

// IsRunning 是否在运行
func (s *TraderService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// TraderStatus 自动交易状态
type TraderStatus struct {
	IsRunning     bool               `json:"is_running"`
	WalletAddress string             `json:"wallet_address"`
	DailySpent    float64            `json:"daily_spent"`
	DailyLimit    float64            `json:"daily_limit"`
	PositionCount int                `json:"position_count"`
	Positions     []PositionSnapshot `json:"positions"`
}

// PositionSnapshot 内存持仓的只读快照
type PositionSnapshot struct {
	TokenAddress string  `json:"token_address"`
	TokenSymbol  string  `json:"token_symbol"`
	EntryPrice   float64 `json:"entry_price"`
	Quantity     float64 `json:"quantity"`
}

// GetStatus 当前运行状态快照
func (s *TraderService) GetStatus() TraderStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	snapshots := make([]PositionSnapshot, 0, len(s.positions))
	for _, p := range s.positions {
		snapshots = append(snapshots, PositionSnapshot{
			TokenAddress: p.tokenAddress,
			TokenSymbol:  p.tokenSymbol,
			EntryPrice:   p.entryPrice,
			Quantity:     p.quantity,
		})
	}
	return TraderStatus{
		IsRunning:     s.running,
		WalletAddress: s.walletAddress,
		DailySpent:    s.dailySpent,
		DailyLimit:    s.dailyLimit,
		PositionCount: len(s.positions),
		Positions:     snapshots,
	}
}

// ResetDaily 清空当日支出与持仓缓存，账户重置后调用
func (s *TraderService) ResetDaily() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dailySpent = 0
	s.positions = make(map[string]*trackedPosition)
	s.logger.Info("trader daily state reset", zap.String("wallet", s.walletAddress))
}

// loadState 从风控策略和账户恢复限额、当日支出与持仓缓存
func (s *TraderService) loadState(ctx context.Context) error {
	if s.conf.Trading.DailyLimit > 0 {
		s.dailyLimit = s.conf.Trading.DailyLimit
	}
	if s.conf.Trading.MaxTradeSize > 0 {
		s.maxTradeSize = s.conf.Trading.MaxTradeSize
	}

	policy, err := s.ledger.GetRiskPolicy(ctx, s.walletAddress)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		limit := s.dailyLimit
		maxSize := s.maxTradeSize
		policy, err = s.ledger.SaveRiskPolicy(ctx, s.walletAddress, RiskPolicyUpdate{
			DailyLimit:   &limit,
			MaxTradeSize: &maxSize,
		})
		if err != nil {
			return err
		}
		s.logger.Info("risk policy created for trader", zap.String("wallet", s.walletAddress))
	}
	if policy.DailyLimit > 0 {
		s.dailyLimit = policy.DailyLimit
	}
	if policy.MaxTradeSize > 0 {
		s.maxTradeSize = policy.MaxTradeSize
	}
	pt := policy.ProfitTaking.Data()
	if pt.SellAt2x > 0 || pt.SellAt5x > 0 || pt.SellAt10x > 0 {
		s.targets = profitTargets{
			at2x:  pt.SellAt2x / 100,
			at5x:  pt.SellAt5x / 100,
			at10x: pt.SellAt10x / 100,
		}
	}

	portfolio, err := s.ledger.GetOrCreatePortfolio(ctx, s.walletAddress, s.network)
	if err != nil {
		return err
	}
	s.dailySpent = 0
	if sameDay(portfolio.DailySpentReset, time.Now()) {
		s.dailySpent = portfolio.DailySpent
	}

	positions, err := s.positionRepo.FindByPortfolioID(ctx, portfolio.ID)
	if err != nil {
		return err
	}
	s.positions = make(map[string]*trackedPosition, len(positions))
	for _, p := range positions {
		s.positions[p.TokenAddress] = &trackedPosition{
			tokenAddress: p.TokenAddress,
			tokenSymbol:  p.TokenSymbol,
			entryPrice:   p.AvgEntryPrice,
			quantity:     p.Quantity,
			entryTime:    p.OpenedAt,
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *TraderService) consumeEvents(ctx context.Context) {
	ch, cancel := s.bus.Subscribe(events.KindTokenDiscovered, events.KindOpportunityFound)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch e := event.(type) {
			case events.TokenDiscovered:
				s.handleNewToken(ctx, e.Token)
			case events.OpportunityFound:
				s.handleOpportunity(ctx, e.Opportunity, e.Token)
			}
		}
	}
}

// consumeTrades pumpportal 成交推送，用来刷新持仓代币的最新价
func (s *TraderService) consumeTrades(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-s.pump.Trades():
			if !ok {
				return
			}
			s.handleTradeUpdate(ctx, data)
		}
	}
}

func (s *TraderService) handleTradeUpdate(ctx context.Context, data feed.TradeData) {
	s.mutex.Lock()
	position, holding := s.positions[data.Mint]
	s.mutex.Unlock()
	if !holding || data.TokenAmount <= 0 || data.SolAmount <= 0 {
		return
	}

	price := data.SolAmount / data.TokenAmount
	if err := s.tokenRepo.UpdatePrice(ctx, data.Mint, price); err != nil {
		s.logger.Warn("failed to update token price", zap.String("mint", data.Mint), zap.Error(err))
		return
	}
	s.logger.Debug("price update",
		zap.String("symbol", position.tokenSymbol),
		zap.Float64("multiplier", price/position.entryPrice))
}

func (s *TraderService) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkPositions(ctx)
		}
	}
}

// handleNewToken 新代币事件入口，按缓存去重后走策略评估
func (s *TraderService) handleNewToken(ctx context.Context, token models.Token) {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	now := time.Now()
	if _, seen := s.seenTokens[token.Address]; seen {
		s.mutex.Unlock()
		return
	}
	s.seenTokens[token.Address] = now
	for addr, ts := range s.seenTokens {
		if now.Sub(ts) > seenTokenTTL {
			delete(s.seenTokens, addr)
		}
	}
	s.mutex.Unlock()

	decision := s.evaluateToken(ctx, token)

	// 下划线开头的原因属于静默跳过，不产生日志
	if len(decision.Reasoning) > 0 && decision.Reasoning[0] == '_' {
		return
	}

	s.logger.Info("token evaluated",
		zap.String("symbol", token.Symbol),
		zap.String("action", decision.Action),
		zap.Int("confidence", decision.Confidence),
		zap.String("reasoning", decision.Reasoning))

	switch decision.Action {
	case "buy":
		if decision.Size > 0 {
			s.executeBuy(ctx, token, decision)
		}
	case "watch":
		if decision.Confidence >= 40 {
			s.ledger.LogActivity(ctx, "", models.ActivityAlert,
				fmt.Sprintf("Watching %s - %s", token.Symbol, decision.Reasoning), nil)
		}
	}
}

// handleOpportunity 机会事件入口，机会已经过扫描器预筛所以直接买
func (s *TraderService) handleOpportunity(ctx context.Context, opportunity models.Opportunity, token models.Token) {
	s.mutex.Lock()
	running := s.running
	maxSize := s.maxTradeSize
	s.mutex.Unlock()
	if !running {
		return
	}

	if opportunity.SuggestedAction != "buy" || opportunity.Score < 60 {
		return
	}
	size := opportunity.SuggestedSize
	if size <= 0 {
		size = 0.1
	}
	if size > maxSize {
		size = maxSize
	}
	s.executeBuy(ctx, token, TradeDecision{
		Action:     "buy",
		Confidence: opportunity.Score,
		Reasoning:  opportunity.Reason,
		Size:       size,
	})
}

// evaluateToken 进场前的硬性闸门，全部通过后才交给策略
func (s *TraderService) evaluateToken(ctx context.Context, token models.Token) TradeDecision {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return TradeDecision{Action: "skip", Reasoning: "Trader not active"}
	}
	if s.dailySpent >= s.dailyLimit {
		s.mutex.Unlock()
		return TradeDecision{Action: "skip", Reasoning: "_dailylimit"}
	}
	if _, holding := s.positions[token.Address]; holding {
		s.mutex.Unlock()
		return TradeDecision{Action: "skip", Reasoning: "Already holding"}
	}
	if time.Since(s.lastTradeTime) < tradeCooldown {
		s.mutex.Unlock()
		return TradeDecision{Action: "skip", Reasoning: "_ratelimit"}
	}
	s.mutex.Unlock()

	symbol := nostd.CleanSymbol(token.Symbol)
	if !nostd.IsValidSymbol(symbol) {
		return TradeDecision{Action: "skip", Reasoning: "_invalid"}
	}

	decision, err := s.strategy.Evaluate(ctx, token)
	if err != nil {
		s.logger.Warn("strategy evaluation failed", zap.String("symbol", token.Symbol), zap.Error(err))
		return TradeDecision{Action: "skip", Reasoning: "_error"}
	}
	return decision
}

func (s *TraderService) executeBuy(ctx context.Context, token models.Token, decision TradeDecision) {
	s.mutex.Lock()
	if s.dailySpent+decision.Size > s.dailyLimit {
		s.mutex.Unlock()
		s.logger.Info("daily limit would be exceeded, skipping buy",
			zap.String("symbol", token.Symbol),
			zap.Float64("daily_spent", s.dailySpent),
			zap.Float64("size", decision.Size))
		return
	}
	s.mutex.Unlock()

	// 危险代币按策略上限拦截，记一次避雷
	if s.blockedByRisk(ctx, token) {
		return
	}

	price := token.Price
	if price <= 0 {
		price = 0.00001
	}

	trade, err := s.ledger.ExecuteTrade(ctx, TradeRequest{
		WalletAddress: s.walletAddress,
		Network:       s.network,
		TokenAddress:  token.Address,
		TokenSymbol:   token.Symbol,
		Side:          "buy",
		Amount:        decision.Size,
		Price:         price,
		Source:        models.TradeSourceAuto,
		Reason:        "AI: " + decision.Reasoning,
	})
	if err != nil {
		s.logger.Warn("buy failed", zap.String("symbol", token.Symbol), zap.Error(err))
		return
	}

	s.mutex.Lock()
	s.dailySpent += decision.Size
	s.lastTradeTime = time.Now()
	s.positions[token.Address] = &trackedPosition{
		tokenAddress: token.Address,
		tokenSymbol:  token.Symbol,
		entryPrice:   price,
		quantity:     trade.Quantity,
		entryTime:    time.Now(),
	}
	s.mutex.Unlock()

	// 订阅这只代币的成交流，拿实时价格
	if err := s.pump.SubscribeTokenTrades(token.Address); err != nil {
		s.logger.Debug("trade subscription failed", zap.String("mint", token.Address), zap.Error(err))
	}

	portfolio, err := s.ledger.GetPortfolio(ctx, s.walletAddress, s.network)
	if err == nil {
		s.ledger.LogActivity(ctx, portfolio.ID, models.ActivitySnipe,
			fmt.Sprintf("Sniped %s for %g SOL (%d%% confidence)", token.Symbol, decision.Size, decision.Confidence), nil)
	}
	s.notify(fmt.Sprintf("🎯 Sniped %s for %g SOL (%d%% confidence)", token.Symbol, decision.Size, decision.Confidence))
}

// blockedByRisk 代币风险超过策略允许的上限时拦截买入
func (s *TraderService) blockedByRisk(ctx context.Context, token models.Token) bool {
	if token.Risk != models.RiskDanger {
		return false
	}
	policy, err := s.ledger.GetRiskPolicy(ctx, s.walletAddress)
	if err != nil || policy.MaxRisk == models.RiskDanger {
		return false
	}

	portfolio, err := s.ledger.GetPortfolio(ctx, s.walletAddress, s.network)
	if err != nil {
		return true
	}
	if err := s.ledger.IncrementRugsAvoided(ctx, portfolio.ID); err != nil {
		s.logger.Warn("failed to count avoided rug", zap.Error(err))
	}
	s.ledger.LogActivity(ctx, portfolio.ID, models.ActivityBlocked,
		fmt.Sprintf("Avoided %s - risk level danger exceeds policy", token.Symbol), nil)
	s.bus.Publish(events.TradeBlocked{WalletAddress: s.walletAddress, Reason: "token risk level is danger"})
	s.logger.Info("danger token blocked", zap.String("symbol", token.Symbol))
	return true
}

// checkPositions 周期巡检：死币清理、快照刷新、阶梯止盈、止损
func (s *TraderService) checkPositions(ctx context.Context) {
	s.mutex.Lock()
	if !s.running || len(s.positions) == 0 {
		s.mutex.Unlock()
		return
	}
	tracked := make([]*trackedPosition, 0, len(s.positions))
	for _, p := range s.positions {
		tracked = append(tracked, p)
	}
	targets := s.targets
	s.mutex.Unlock()

	portfolio, err := s.ledger.GetPortfolio(ctx, s.walletAddress, s.network)
	if err != nil {
		s.logger.Warn("portfolio lookup failed during position check", zap.Error(err))
		return
	}

	for _, position := range tracked {
		token, err := s.tokenRepo.FindByAddress(ctx, position.tokenAddress)
		if err != nil {
			continue
		}

		currentPrice := token.Price
		if currentPrice <= 0 {
			currentPrice = position.entryPrice
		}

		age := time.Since(position.entryTime)
		noPriceData := token.Price <= 0 || token.Price == position.entryPrice
		if age > deadTokenAge && noPriceData {
			lossPrice := position.entryPrice * deadTokenExitRate
			s.logger.Info("dead token detected, dumping",
				zap.String("symbol", position.tokenSymbol),
				zap.Duration("age", age))
			s.executeSell(ctx, position, 1.0, deadTokenExitRate, lossPrice, true)
			s.ledger.LogActivity(ctx, portfolio.ID, models.ActivityRug,
				fmt.Sprintf("Dumped dead token %s (-50%% assumed loss)", position.tokenSymbol), nil)
			continue
		}

		multiplier := currentPrice / position.entryPrice
		if row, err := s.positionRepo.FindByPortfolioAndToken(ctx, portfolio.ID, position.tokenAddress); err == nil {
			if err := s.ledger.UpdatePositionSnapshot(ctx, s.walletAddress, &row, currentPrice); err != nil {
				s.logger.Warn("failed to refresh position snapshot", zap.Error(err))
			}
		}

		// 阶梯止盈，单轮只触发最高一档
		switch {
		case multiplier >= 10 && targets.at10x > 0:
			s.executeSell(ctx, position, targets.at10x, multiplier, currentPrice, false)
		case multiplier >= 5 && targets.at5x > 0:
			s.executeSell(ctx, position, targets.at5x, multiplier, currentPrice, false)
		case multiplier >= 2 && targets.at2x > 0:
			s.executeSell(ctx, position, targets.at2x, multiplier, currentPrice, false)
		}

		if multiplier <= stopLossMultiplier {
			s.executeSell(ctx, position, 1.0, multiplier, currentPrice, true)
		}
	}
}

// executeSell 卖出持仓的一部分并同步内存缓存
func (s *TraderService) executeSell(ctx context.Context, position *trackedPosition, sellPercent, multiplier, price float64, isStopLoss bool) {
	s.mutex.Lock()
	sellQuantity := position.quantity * sellPercent
	s.mutex.Unlock()
	if sellQuantity <= 0 {
		return
	}

	source := models.TradeSourceProfitTake
	if isStopLoss {
		source = models.TradeSourceStopLoss
	}
	_, err := s.ledger.ExecuteTrade(ctx, TradeRequest{
		WalletAddress: s.walletAddress,
		Network:       s.network,
		TokenAddress:  position.tokenAddress,
		TokenSymbol:   position.tokenSymbol,
		Side:          "sell",
		Amount:        sellQuantity,
		Price:         price,
		Source:        source,
		Reason:        fmt.Sprintf("%.1fx exit", multiplier),
	})
	if err != nil {
		s.logger.Warn("sell failed", zap.String("symbol", position.tokenSymbol), zap.Error(err))
		return
	}

	s.mutex.Lock()
	position.quantity -= sellQuantity
	if position.quantity <= 0 {
		delete(s.positions, position.tokenAddress)
	}
	s.mutex.Unlock()

	action := fmt.Sprintf("Sold %d%%", int(sellPercent*100+0.5))
	emoji := "💰"
	if isStopLoss {
		action = "Stop loss"
		emoji = "🛑"
	}
	s.logger.Info("position exit",
		zap.String("symbol", position.tokenSymbol),
		zap.Float64("multiplier", multiplier),
		zap.Bool("stop_loss", isStopLoss))
	s.notify(fmt.Sprintf("%s %s %s at %.1fx", emoji, action, position.tokenSymbol, multiplier))
}

func (s *TraderService) notify(msg string) {
	if s.tg == nil || !s.conf.Telegram.Enabled {
		return
	}
	if err := s.tg.Notify(s.conf.Telegram.ChatID, msg); err != nil {
		s.logger.Warn("telegram notify failed", zap.Error(err))
	}
}
