package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/solsnipe/internal/events"
	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/dushixiang/solsnipe/internal/repo"
	"github.com/dushixiang/solsnipe/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 模拟账户初始余额（SOL）
const DefaultInitialBalance = 10.0

// 卖出后剩余数量小于该值视为清仓，整行删除
const dustThreshold = 0.0001

// 风控策略默认值
const (
	defaultMaxTradeSize = 0.5
	defaultDailyLimit   = 2.0
	defaultSlippageCap  = 1.0
	defaultMinLiquidity = 10.0
	defaultMinHolders   = 50
)

func NewLedgerService(logger *zap.Logger, db *gorm.DB, bus *events.Bus, initialBalance float64,
	portfolioRepo *repo.PortfolioRepo, positionRepo *repo.PositionRepo, tradeRepo *repo.TradeRepo,
	riskPolicyRepo *repo.RiskPolicyRepo, activityRepo *repo.ActivityRepo) *LedgerService {
	if initialBalance <= 0 {
		initialBalance = DefaultInitialBalance
	}
	return &LedgerService{
		Service:        orz.NewService(db),
		logger:         logger,
		bus:            bus,
		initialBalance: initialBalance,
		portfolioRepo:  portfolioRepo,
		positionRepo:   positionRepo,
		tradeRepo:      tradeRepo,
		riskPolicyRepo: riskPolicyRepo,
		activityRepo:   activityRepo,
	}
}

// LedgerService 模拟交易账本，负责账户、持仓、成交与风控校验
// 同一账户的交易串行执行，保证余额和持仓的一致性
type LedgerService struct {
	*orz.Service
	logger *zap.Logger
	bus    *events.Bus

	initialBalance float64

	portfolioRepo  *repo.PortfolioRepo
	positionRepo   *repo.PositionRepo
	tradeRepo      *repo.TradeRepo
	riskPolicyRepo *repo.RiskPolicyRepo
	activityRepo   *repo.ActivityRepo

	lockMutex   sync.Mutex
	walletLocks map[string]*sync.Mutex
}

func (s *LedgerService) walletLock(walletAddress string) *sync.Mutex {
	s.lockMutex.Lock()
	defer s.lockMutex.Unlock()
	if s.walletLocks == nil {
		s.walletLocks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.walletLocks[walletAddress]
	if !ok {
		lock = &sync.Mutex{}
		s.walletLocks[walletAddress] = lock
	}
	return lock
}

// GetOrCreatePortfolio 获取账户，不存在则以初始余额创建
func (s *LedgerService) GetOrCreatePortfolio(ctx context.Context, walletAddress, network string) (models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.FindByWalletAndNetwork(ctx, walletAddress, network)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Portfolio{}, err
	}

	now := time.Now()
	portfolio = models.Portfolio{
		ID:              ulid.Make().String(),
		WalletAddress:   walletAddress,
		Network:         network,
		SolBalance:      s.initialBalance,
		TotalDeposited:  s.initialBalance,
		DailySpentReset: now,
	}
	if err := s.portfolioRepo.Create(ctx, &portfolio); err != nil {
		return models.Portfolio{}, err
	}
	s.LogActivity(ctx, portfolio.ID, models.ActivityAlert,
		fmt.Sprintf("Paper trading portfolio created with %g SOL", s.initialBalance), nil)

	s.logger.Info("portfolio created",
		zap.String("wallet", walletAddress),
		zap.String("network", network),
		zap.Float64("balance", s.initialBalance))
	return portfolio, nil
}

// GetPortfolio 获取账户
func (s *LedgerService) GetPortfolio(ctx context.Context, walletAddress, network string) (models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.FindByWalletAndNetwork(ctx, walletAddress, network)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Portfolio{}, xe.ErrPortfolioNotFound
		}
		return models.Portfolio{}, err
	}
	return portfolio, nil
}

// ListPositions 获取账户全部持仓
func (s *LedgerService) ListPositions(ctx context.Context, portfolioID string) ([]models.Position, error) {
	return s.positionRepo.FindByPortfolioID(ctx, portfolioID)
}

// ListTrades 获取账户最近成交
func (s *LedgerService) ListTrades(ctx context.Context, portfolioID string, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.tradeRepo.FindRecentByPortfolio(ctx, portfolioID, limit)
}

// ListActivities 获取账户最近活动
func (s *LedgerService) ListActivities(ctx context.Context, portfolioID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.activityRepo.FindRecentByPortfolio(ctx, portfolioID, limit)
}

// TradeRequest 成交请求
// 买入时 Amount 表示花费的SOL，卖出时表示卖出的代币数量
type TradeRequest struct {
	WalletAddress string
	Network       string
	TokenAddress  string
	TokenSymbol   string
	Side          string
	Amount        float64
	Price         float64
	Source        string
	Reason        string
}

// ExecuteTrade 执行一笔模拟成交，买入前先过风控校验
func (s *LedgerService) ExecuteTrade(ctx context.Context, req TradeRequest) (models.Trade, error) {
	if req.Amount <= 0 {
		return models.Trade{}, xe.ErrInvalidAmount
	}
	if req.Price <= 0 {
		return models.Trade{}, xe.ErrInvalidPrice
	}
	if req.Source == "" {
		req.Source = models.TradeSourceManual
	}

	lock := s.walletLock(req.WalletAddress)
	lock.Lock()
	defer lock.Unlock()

	portfolio, err := s.GetOrCreatePortfolio(ctx, req.WalletAddress, req.Network)
	if err != nil {
		return models.Trade{}, err
	}

	policy, err := s.riskPolicyRepo.FindByWallet(ctx, req.WalletAddress)
	if err == nil && !policy.IsPaused {
		if verr := s.validateTrade(ctx, &portfolio, policy, req); verr != nil {
			s.LogActivity(ctx, portfolio.ID, models.ActivityBlocked, verr.Error(), nil)
			s.bus.Publish(events.TradeBlocked{WalletAddress: req.WalletAddress, Reason: verr.Error()})
			return models.Trade{}, verr
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Trade{}, err
	}

	switch req.Side {
	case "buy":
		return s.executeBuy(ctx, portfolio, req)
	case "sell":
		return s.executeSell(ctx, portfolio, req)
	default:
		return models.Trade{}, xe.ErrInvalidTradeSide
	}
}

// validateTrade 买入前校验单笔上限和每日限额，卖出不受限
func (s *LedgerService) validateTrade(ctx context.Context, portfolio *models.Portfolio, policy models.RiskPolicy, req TradeRequest) error {
	if req.Side != "buy" {
		return nil
	}

	if req.Amount > policy.MaxTradeSize {
		return fmt.Errorf("%w: %.4f > %.4f SOL", xe.ErrTradeSizeExceeded, req.Amount, policy.MaxTradeSize)
	}

	if err := s.checkDailyReset(ctx, portfolio); err != nil {
		return err
	}
	if portfolio.DailySpent+req.Amount > policy.DailyLimit {
		return fmt.Errorf("%w: %.2f > %.2f SOL", xe.ErrDailyLimitExceeded, portfolio.DailySpent+req.Amount, policy.DailyLimit)
	}
	return nil
}

// checkDailyReset 距离上次重置满24小时后清零当日支出
func (s *LedgerService) checkDailyReset(ctx context.Context, portfolio *models.Portfolio) error {
	if time.Since(portfolio.DailySpentReset) < 24*time.Hour {
		return nil
	}
	now := time.Now()
	portfolio.DailySpent = 0
	portfolio.DailySpentReset = now
	db := s.portfolioRepo.GetDB(ctx)
	return db.Table(s.portfolioRepo.GetTableName()).
		Where("id = ?", portfolio.ID).
		Updates(map[string]any{"daily_spent": 0, "daily_spent_reset": now}).Error
}

func (s *LedgerService) executeBuy(ctx context.Context, portfolio models.Portfolio, req TradeRequest) (models.Trade, error) {
	if portfolio.SolBalance < req.Amount {
		return models.Trade{}, xe.ErrInsufficientBalance
	}

	quantity := req.Amount / req.Price
	now := time.Now()
	trade := models.Trade{
		ID:           ulid.Make().String(),
		PortfolioID:  portfolio.ID,
		TokenAddress: req.TokenAddress,
		TokenSymbol:  req.TokenSymbol,
		Side:         "buy",
		Quantity:     quantity,
		Price:        req.Price,
		Value:        req.Amount,
		Source:       req.Source,
		Reason:       req.Reason,
		Status:       "executed",
		ExecutedAt:   now,
	}

	err := s.Transaction(ctx, func(ctx context.Context) error {
		position, err := s.positionRepo.FindByPortfolioAndToken(ctx, portfolio.ID, req.TokenAddress)
		switch {
		case err == nil:
			// 加仓，重新计算加权平均建仓价
			newQuantity := position.Quantity + quantity
			newEntryValue := position.EntryValue + req.Amount
			position.Quantity = newQuantity
			position.AvgEntryPrice = newEntryValue / newQuantity
			position.EntryValue = newEntryValue
			position.CurrentPrice = req.Price
			position.CurrentValue = newQuantity * req.Price
			if err := s.positionRepo.Save(ctx, &position); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			position = models.Position{
				ID:            ulid.Make().String(),
				PortfolioID:   portfolio.ID,
				TokenAddress:  req.TokenAddress,
				TokenSymbol:   req.TokenSymbol,
				Quantity:      quantity,
				AvgEntryPrice: req.Price,
				CurrentPrice:  req.Price,
				EntryValue:    req.Amount,
				CurrentValue:  req.Amount,
				OpenedAt:      now,
			}
			if err := s.positionRepo.Create(ctx, &position); err != nil {
				return err
			}
		default:
			return err
		}

		db := s.portfolioRepo.GetDB(ctx)
		if err := db.Table(s.portfolioRepo.GetTableName()).
			Where("id = ?", portfolio.ID).
			Updates(map[string]any{
				"sol_balance":  gorm.Expr("sol_balance - ?", req.Amount),
				"daily_spent":  gorm.Expr("daily_spent + ?", req.Amount),
				"total_trades": gorm.Expr("total_trades + 1"),
			}).Error; err != nil {
			return err
		}

		return s.tradeRepo.Create(ctx, &trade)
	})
	if err != nil {
		return models.Trade{}, err
	}

	activityType := models.ActivityTrade
	if req.Source != models.TradeSourceManual {
		activityType = models.ActivitySnipe
	}
	s.LogActivity(ctx, portfolio.ID, activityType,
		fmt.Sprintf("Bought %.4f %s for %.4f SOL @ %.8f", quantity, req.TokenSymbol, req.Amount, req.Price), nil)

	s.bus.Publish(events.TradeExecuted{Trade: trade})
	s.logger.Info("buy executed",
		zap.String("wallet", req.WalletAddress),
		zap.String("symbol", req.TokenSymbol),
		zap.Float64("sol", req.Amount),
		zap.Float64("price", req.Price),
		zap.String("source", req.Source))
	return trade, nil
}

func (s *LedgerService) executeSell(ctx context.Context, portfolio models.Portfolio, req TradeRequest) (models.Trade, error) {
	position, err := s.positionRepo.FindByPortfolioAndToken(ctx, portfolio.ID, req.TokenAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Trade{}, xe.ErrNoPosition
		}
		return models.Trade{}, err
	}
	if position.Quantity < req.Amount {
		return models.Trade{}, xe.ErrInsufficientPosition
	}

	quantity := req.Amount
	solReceived := quantity * req.Price
	costBasis := (quantity / position.Quantity) * position.EntryValue
	pnl := solReceived - costBasis
	multiplier := solReceived / costBasis
	isWin := pnl > 0
	now := time.Now()

	trade := models.Trade{
		ID:           ulid.Make().String(),
		PortfolioID:  portfolio.ID,
		TokenAddress: req.TokenAddress,
		TokenSymbol:  req.TokenSymbol,
		Side:         "sell",
		Quantity:     quantity,
		Price:        req.Price,
		Value:        solReceived,
		Pnl:          pnl,
		Multiplier:   multiplier,
		Source:       req.Source,
		Reason:       req.Reason,
		Status:       "executed",
		ExecutedAt:   now,
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		remaining := position.Quantity - quantity
		if remaining <= dustThreshold {
			if err := s.positionRepo.DeleteById(ctx, position.ID); err != nil {
				return err
			}
		} else {
			position.Quantity = remaining
			position.EntryValue -= costBasis
			position.CurrentPrice = req.Price
			position.CurrentValue = remaining * req.Price
			if err := s.positionRepo.Save(ctx, &position); err != nil {
				return err
			}
		}

		winScore := 0
		if isWin {
			winScore = 100
		}
		db := s.portfolioRepo.GetDB(ctx)
		// 胜率按新的总笔数做增量更新，total_trades 在同一条语句里自增
		if err := db.Table(s.portfolioRepo.GetTableName()).
			Where("id = ?", portfolio.ID).
			Updates(map[string]any{
				"sol_balance":  gorm.Expr("sol_balance + ?", solReceived),
				"total_pnl":    gorm.Expr("total_pnl + ?", pnl),
				"total_trades": gorm.Expr("total_trades + 1"),
				"win_rate":     gorm.Expr("(win_rate * total_trades + ?) / (total_trades + 1)", winScore),
				"best_trade":   gorm.Expr("CASE WHEN ? > best_trade THEN ? ELSE best_trade END", multiplier, multiplier),
			}).Error; err != nil {
			return err
		}

		return s.tradeRepo.Create(ctx, &trade)
	})
	if err != nil {
		return models.Trade{}, err
	}

	pnlStr := fmt.Sprintf("%.4f", pnl)
	if pnl >= 0 {
		pnlStr = "+" + pnlStr
	}
	multiplierStr := fmt.Sprintf("%.1f%%", multiplier*100)
	if multiplier >= 1 {
		multiplierStr = fmt.Sprintf("%.2fx", multiplier)
	}
	s.LogActivity(ctx, portfolio.ID, models.ActivityExit,
		fmt.Sprintf("Sold %.4f %s for %.4f SOL (%s SOL, %s)", quantity, req.TokenSymbol, solReceived, pnlStr, multiplierStr), nil)

	s.bus.Publish(events.TradeExecuted{Trade: trade})
	s.logger.Info("sell executed",
		zap.String("wallet", req.WalletAddress),
		zap.String("symbol", req.TokenSymbol),
		zap.Float64("sol", solReceived),
		zap.Float64("pnl", pnl),
		zap.String("source", req.Source))
	return trade, nil
}

// PortfolioStats 账户统计快照
type PortfolioStats struct {
	TotalValue      float64 `json:"total_value"`
	SolBalance      float64 `json:"sol_balance"`
	PositionsValue  float64 `json:"positions_value"`
	TotalPnl        float64 `json:"total_pnl"`
	TotalPnlPercent float64 `json:"total_pnl_percent"`
	DailyPnl        float64 `json:"daily_pnl"`
	DailySpent      float64 `json:"daily_spent"`
	DailyRemaining  float64 `json:"daily_remaining"`
	PositionCount   int     `json:"position_count"`
	WinRate         float64 `json:"win_rate"`
	BestTrade       float64 `json:"best_trade"`
	RugsAvoided     int     `json:"rugs_avoided"`
}

// GetPortfolioStats 汇总账户统计，未实现盈亏来自持仓快照
func (s *LedgerService) GetPortfolioStats(ctx context.Context, walletAddress, network string) (PortfolioStats, error) {
	portfolio, err := s.GetPortfolio(ctx, walletAddress, network)
	if err != nil {
		return PortfolioStats{}, err
	}
	if err := s.checkDailyReset(ctx, &portfolio); err != nil {
		return PortfolioStats{}, err
	}

	dailyLimit := defaultDailyLimit
	if policy, err := s.riskPolicyRepo.FindByWallet(ctx, walletAddress); err == nil && policy.DailyLimit > 0 {
		dailyLimit = policy.DailyLimit
	}

	positions, err := s.positionRepo.FindByPortfolioID(ctx, portfolio.ID)
	if err != nil {
		return PortfolioStats{}, err
	}

	var positionsValue, unrealizedPnl float64
	winners := 0
	bestTrade := portfolio.BestTrade
	if bestTrade < 1 {
		bestTrade = 1
	}
	for i := range positions {
		p := &positions[i]
		positionsValue += p.CurrentValue
		unrealizedPnl += p.Pnl
		if p.Pnl > 0 {
			winners++
		}
		if mult := p.Multiplier(); mult > bestTrade {
			bestTrade = mult
		}
	}

	totalValue := portfolio.SolBalance + positionsValue
	totalPnlPercent := 0.0
	if portfolio.TotalDeposited > 0 {
		totalPnlPercent = (totalValue - portfolio.TotalDeposited) / portfolio.TotalDeposited * 100
	}
	winRate := 0.0
	if len(positions) > 0 {
		winRate = float64(winners) / float64(len(positions)) * 100
	}
	dailyRemaining := dailyLimit - portfolio.DailySpent
	if dailyRemaining < 0 {
		dailyRemaining = 0
	}

	return PortfolioStats{
		TotalValue:      totalValue,
		SolBalance:      portfolio.SolBalance,
		PositionsValue:  positionsValue,
		TotalPnl:        unrealizedPnl + portfolio.TotalPnl,
		TotalPnlPercent: totalPnlPercent,
		DailyPnl:        unrealizedPnl,
		DailySpent:      portfolio.DailySpent,
		DailyRemaining:  dailyRemaining,
		PositionCount:   len(positions),
		WinRate:         winRate,
		BestTrade:       bestTrade,
		RugsAvoided:     portfolio.RugsAvoided,
	}, nil
}

// UpdatePositionSnapshot 刷新持仓的价格快照并广播
func (s *LedgerService) UpdatePositionSnapshot(ctx context.Context, walletAddress string, position *models.Position, price float64) error {
	position.CurrentPrice = price
	position.CurrentValue = position.Quantity * price
	position.Pnl = (price - position.AvgEntryPrice) * position.Quantity
	if position.AvgEntryPrice > 0 {
		position.PnlPercent = (price/position.AvgEntryPrice - 1) * 100
	}
	if err := s.positionRepo.Save(ctx, position); err != nil {
		return err
	}
	s.bus.Publish(events.PositionUpdated{
		WalletAddress: walletAddress,
		TokenAddress:  position.TokenAddress,
		TokenSymbol:   position.TokenSymbol,
		Multiplier:    position.Multiplier(),
		Pnl:           position.Pnl,
		PnlPercent:    position.PnlPercent,
	})
	return nil
}

// IncrementRugsAvoided 风控拦住一个危险代币后累加计数
func (s *LedgerService) IncrementRugsAvoided(ctx context.Context, portfolioID string) error {
	db := s.portfolioRepo.GetDB(ctx)
	return db.Table(s.portfolioRepo.GetTableName()).
		Where("id = ?", portfolioID).
		Update("rugs_avoided", gorm.Expr("rugs_avoided + 1")).Error
}

// RiskPolicyUpdate 风控策略的部分更新，nil字段保持原值
type RiskPolicyUpdate struct {
	MaxTradeSize   *float64             `json:"max_trade_size"`
	DailyLimit     *float64             `json:"daily_limit"`
	SlippageCap    *float64             `json:"slippage_cap"`
	AllowedTokens  []string             `json:"allowed_tokens"`
	AllowedDexes   []string             `json:"allowed_dexes"`
	AutonomousMode *string              `json:"autonomous_mode"`
	ProfitTaking   *models.ProfitTaking `json:"profit_taking"`
	MinLiquidity   *float64             `json:"min_liquidity"`
	MinHolders     *int                 `json:"min_holders"`
	MaxRisk        *models.RiskLevel    `json:"max_risk"`
	IsPaused       *bool                `json:"is_paused"`
}

// GetRiskPolicy 获取风控策略
func (s *LedgerService) GetRiskPolicy(ctx context.Context, walletAddress string) (models.RiskPolicy, error) {
	return s.riskPolicyRepo.FindByWallet(ctx, walletAddress)
}

// SaveRiskPolicy 保存风控策略，不存在时以默认值创建，存在时只覆盖提供的字段
func (s *LedgerService) SaveRiskPolicy(ctx context.Context, walletAddress string, update RiskPolicyUpdate) (models.RiskPolicy, error) {
	policy, err := s.riskPolicyRepo.FindByWallet(ctx, walletAddress)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RiskPolicy{}, err
		}
		policy = s.defaultRiskPolicy(walletAddress)
	}

	if update.MaxTradeSize != nil {
		policy.MaxTradeSize = *update.MaxTradeSize
	}
	if update.DailyLimit != nil {
		policy.DailyLimit = *update.DailyLimit
	}
	if update.SlippageCap != nil {
		policy.SlippageCap = *update.SlippageCap
	}
	if update.AllowedTokens != nil {
		policy.AllowedTokens = datatypes.NewJSONSlice(update.AllowedTokens)
	}
	if update.AllowedDexes != nil {
		policy.AllowedDexes = datatypes.NewJSONSlice(update.AllowedDexes)
	}
	if update.AutonomousMode != nil {
		policy.AutonomousMode = *update.AutonomousMode
	}
	if update.ProfitTaking != nil {
		policy.ProfitTaking = datatypes.NewJSONType(*update.ProfitTaking)
	}
	if update.MinLiquidity != nil {
		policy.MinLiquidity = *update.MinLiquidity
	}
	if update.MinHolders != nil {
		policy.MinHolders = *update.MinHolders
	}
	if update.MaxRisk != nil {
		policy.MaxRisk = *update.MaxRisk
	}
	if update.IsPaused != nil {
		policy.IsPaused = *update.IsPaused
	}

	if err := s.riskPolicyRepo.Save(ctx, &policy); err != nil {
		return models.RiskPolicy{}, err
	}
	return policy, nil
}

// SetPaused 暂停或恢复该钱包的交易校验
func (s *LedgerService) SetPaused(ctx context.Context, walletAddress string, paused bool) (models.RiskPolicy, error) {
	return s.SaveRiskPolicy(ctx, walletAddress, RiskPolicyUpdate{IsPaused: &paused})
}

func (s *LedgerService) defaultRiskPolicy(walletAddress string) models.RiskPolicy {
	return models.RiskPolicy{
		ID:             ulid.Make().String(),
		WalletAddress:  walletAddress,
		MaxTradeSize:   defaultMaxTradeSize,
		DailyLimit:     defaultDailyLimit,
		SlippageCap:    defaultSlippageCap,
		AllowedTokens:  datatypes.NewJSONSlice([]string{"SOL", "USDC"}),
		AllowedDexes:   datatypes.NewJSONSlice([]string{"jupiter", "raydium"}),
		AutonomousMode: models.ModeModerate,
		ProfitTaking: datatypes.NewJSONType(models.ProfitTaking{
			SellAt2x:  25,
			SellAt5x:  50,
			SellAt10x: 100,
		}),
		MinLiquidity: defaultMinLiquidity,
		MinHolders:   defaultMinHolders,
		MaxRisk:      models.RiskRisky,
		IsActive:     true,
	}
}

// LogActivity 写入活动日志并广播
func (s *LedgerService) LogActivity(ctx context.Context, portfolioID, activityType, message string, data map[string]any) {
	activity := models.Activity{
		ID:          ulid.Make().String(),
		PortfolioID: portfolioID,
		Type:        activityType,
		Message:     message,
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			activity.Data = raw
		}
	}
	if err := s.activityRepo.Create(ctx, &activity); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err))
		return
	}
	s.bus.Publish(events.ActivityLogged{Activity: activity})
}

// ResetPortfolio 清空持仓、成交和活动，余额恢复到初始值
func (s *LedgerService) ResetPortfolio(ctx context.Context, walletAddress, network string) error {
	lock := s.walletLock(walletAddress)
	lock.Lock()
	defer lock.Unlock()

	portfolio, err := s.GetPortfolio(ctx, walletAddress, network)
	if err != nil {
		return err
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.positionRepo.DeleteByPortfolioID(ctx, portfolio.ID); err != nil {
			return err
		}
		if err := s.tradeRepo.DeleteByPortfolioID(ctx, portfolio.ID); err != nil {
			return err
		}
		if err := s.activityRepo.DeleteByPortfolioID(ctx, portfolio.ID); err != nil {
			return err
		}
		db := s.portfolioRepo.GetDB(ctx)
		return db.Table(s.portfolioRepo.GetTableName()).
			Where("id = ?", portfolio.ID).
			Updates(map[string]any{
				"sol_balance":     s.initialBalance,
				"total_deposited": s.initialBalance,
				"total_pnl":       0,
				"total_trades":    0,
				"win_rate":        0,
				"best_trade":      0,
				"rugs_avoided":    0,
				"daily_spent":     0,
			}).Error
	})
	if err != nil {
		return err
	}

	s.LogActivity(ctx, portfolio.ID, models.ActivityAlert,
		fmt.Sprintf("Portfolio reset with %g SOL", s.initialBalance), nil)
	s.logger.Info("portfolio reset", zap.String("wallet", walletAddress))
	return nil
}
