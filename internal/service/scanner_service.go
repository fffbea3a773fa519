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
	"github.com/dushixiang/solsnipe/pkg/feed"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultScanInterval = 15 * time.Second

// dexscreener 每轮只取前N个solana档案，避免触发限流
const maxProfilesPerScan = 10

func NewScannerService(logger *zap.Logger, db *gorm.DB, conf *config.Config, bus *events.Bus,
	pump *feed.PumpPortalClient, dex *feed.DexScreenerClient, binance *feed.BinanceClient,
	tokenRepo *repo.TokenRepo, opportunityRepo *repo.OpportunityRepo) *ScannerService {
	interval := defaultScanInterval
	if conf.Feed.ScanIntervalSecs > 0 {
		interval = time.Duration(conf.Feed.ScanIntervalSecs) * time.Second
	}
	return &ScannerService{
		Service:         orz.NewService(db),
		logger:          logger,
		bus:             bus,
		pump:            pump,
		dex:             dex,
		binance:         binance,
		tokenRepo:       tokenRepo,
		opportunityRepo: opportunityRepo,
		scanInterval:    interval,
	}
}

// ScannerService 代币发现服务
// pumpportal 长连接负责实时推送，dexscreener 轮询负责补充，两路统一入库
type ScannerService struct {
	*orz.Service
	logger *zap.Logger
	bus    *events.Bus

	pump    *feed.PumpPortalClient
	dex     *feed.DexScreenerClient
	binance *feed.BinanceClient

	tokenRepo       *repo.TokenRepo
	opportunityRepo *repo.OpportunityRepo

	scanInterval time.Duration

	mutex      sync.Mutex
	running    bool
	scheduler  *cron.Cron
	cancelFunc context.CancelFunc
}

// Start 启动扫描器
func (s *ScannerService) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.pump.Start(ctx)
	if err := s.pump.SubscribeNewTokens(); err != nil {
		s.logger.Warn("pumpportal subscribe failed, relying on http polling", zap.Error(err))
	}
	go s.consumePumpTokens(ctx)

	// 启动时先扫一轮，再按固定周期轮询
	go s.scan(ctx)

	scheduler := cron.New(cron.WithSeconds())
	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", s.scanInterval), func() {
		s.scan(ctx)
	})
	if err != nil {
		cancel()
		return err
	}
	scheduler.Start()
	s.scheduler = scheduler
	s.running = true

	s.logger.Info("scanner started", zap.Duration("interval", s.scanInterval))
	return nil
}

// Stop 停止扫描器
func (s *ScannerService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler = nil
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.pump.Stop()
	s.running = false
	s.logger.Info("scanner stopped")
}

// IsRunning 扫描器是否在运行
func (s *ScannerService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// ListRecentTokens 最近发现的代币
func (s *ScannerService) ListRecentTokens(ctx context.Context, limit int) ([]models.Token, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.tokenRepo.FindRecent(ctx, limit)
}

// ListTokensBySource 按来源过滤的代币
func (s *ScannerService) ListTokensBySource(ctx context.Context, source string, limit int) ([]models.Token, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.tokenRepo.FindBySource(ctx, source, limit)
}

// ListOpportunities 当前有效的机会
func (s *ScannerService) ListOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	return s.opportunityRepo.FindActive(ctx, time.Now())
}

// GetToken 按地址查询代币
func (s *ScannerService) GetToken(ctx context.Context, address string) (models.Token, error) {
	return s.tokenRepo.FindByAddress(ctx, address)
}

func (s *ScannerService) consumePumpTokens(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-s.pump.Tokens():
			if !ok {
				return
			}
			s.handlePumpToken(ctx, data)
		}
	}
}

// handlePumpToken pumpportal 推送的新代币，流动性直接是SOL计价的虚拟储备
func (s *ScannerService) handlePumpToken(ctx context.Context, data feed.TokenData) {
	if data.Mint == "" {
		return
	}
	liquidity := data.VirtualSolReserves
	marketCap := data.UsdMarketCap

	token := models.Token{
		ID:          ulid.Make().String(),
		Address:     data.Mint,
		Symbol:      "$" + data.Symbol,
		Name:        data.Name,
		Decimals:    6,
		Source:      "pumpfun",
		Price:       data.Price,
		MarketCap:   marketCap,
		Liquidity:   liquidity,
		Risk:        AssessRisk(marketCap, liquidity, 0),
		RiskReasons: datatypes.NewJSONSlice(RiskReasons(marketCap, liquidity, 0)),
		LaunchedAt:  time.Now(),
	}
	s.upsertToken(ctx, token)
}

func (s *ScannerService) scan(ctx context.Context) {
	newCount, err := s.scanDexScreener(ctx)
	if err != nil {
		s.logger.Error("dexscreener scan failed", zap.Error(err))
	}
	if newCount > 0 {
		s.logger.Info("scan found new tokens", zap.Int("count", newCount))
	}

	if err := s.opportunityRepo.DeleteExpired(ctx, time.Now()); err != nil {
		s.logger.Warn("failed to cleanup expired opportunities", zap.Error(err))
	}
}

func (s *ScannerService) scanDexScreener(ctx context.Context) (int, error) {
	profiles, err := s.dex.LatestProfiles(ctx)
	if err != nil {
		return 0, err
	}

	solPrice := s.binance.GetSolPrice(ctx)
	newCount := 0
	seen := 0
	for _, profile := range profiles {
		if profile.ChainID != "solana" || profile.TokenAddress == "" {
			continue
		}
		if seen++; seen > maxProfilesPerScan {
			break
		}

		pairs, err := s.dex.TokenPairs(ctx, "solana", profile.TokenAddress)
		if err != nil {
			s.logger.Debug("failed to fetch pairs", zap.String("token", profile.TokenAddress), zap.Error(err))
			continue
		}
		if len(pairs) == 0 {
			continue
		}

		token := s.mapPair(pairs[0], profile, solPrice)
		if s.upsertToken(ctx, token) {
			newCount++
		}
	}
	return newCount, nil
}

// mapPair dexscreener 交易对转内部代币，美元流动性按SOL现价折算
func (s *ScannerService) mapPair(pair feed.TokenPair, profile feed.TokenProfile, solPrice float64) models.Token {
	liquidity := 0.0
	if solPrice > 0 {
		liquidity = pair.Liquidity.Usd / solPrice
	}
	marketCap := pair.MarketCap
	if marketCap == 0 {
		marketCap = pair.Fdv
	}

	address := pair.BaseToken.Address
	if address == "" {
		address = profile.TokenAddress
	}
	symbol := pair.BaseToken.Symbol
	if symbol == "" {
		symbol = "???"
	}
	name := pair.BaseToken.Name
	if name == "" {
		name = "Unknown"
	}
	launchedAt := time.Now()
	if pair.PairCreatedAt > 0 {
		launchedAt = time.UnixMilli(pair.PairCreatedAt)
	}

	return models.Token{
		ID:             ulid.Make().String(),
		Address:        address,
		Symbol:         "$" + symbol,
		Name:           name,
		Decimals:       9,
		Source:         "raydium",
		Price:          cast.ToFloat64(pair.PriceUsd),
		PriceChange24h: pair.PriceChange.H24,
		MarketCap:      marketCap,
		Volume24h:      pair.Volume.H24,
		Liquidity:      liquidity,
		Risk:           AssessRisk(marketCap, liquidity, 0),
		RiskReasons:    datatypes.NewJSONSlice(RiskReasons(marketCap, liquidity, 0)),
		ImageURL:       profile.Icon,
		LaunchedAt:     launchedAt,
	}
}

// upsertToken 新代币入库并评估机会，已知代币只刷新价格，返回是否是新代币
func (s *ScannerService) upsertToken(ctx context.Context, token models.Token) bool {
	existing, err := s.tokenRepo.FindByAddress(ctx, token.Address)
	if err == nil {
		if err := s.tokenRepo.UpdateSnapshot(ctx, existing.Address, map[string]any{
			"price":            token.Price,
			"price_change_24h": token.PriceChange24h,
		}); err != nil {
			s.logger.Warn("failed to update token price", zap.String("address", token.Address), zap.Error(err))
		}
		return false
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("token lookup failed", zap.String("address", token.Address), zap.Error(err))
		return false
	}

	if err := s.tokenRepo.Create(ctx, &token); err != nil {
		s.logger.Warn("failed to save token", zap.String("address", token.Address), zap.Error(err))
		return false
	}
	s.bus.Publish(events.TokenDiscovered{Token: token})
	s.logger.Info("new token discovered",
		zap.String("symbol", token.Symbol),
		zap.String("source", token.Source),
		zap.String("risk", string(token.Risk)))

	if opportunity := EvaluateOpportunity(token, time.Now()); opportunity != nil {
		if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
			s.logger.Warn("failed to save opportunity", zap.Error(err))
			return true
		}
		s.bus.Publish(events.OpportunityFound{Opportunity: *opportunity, Token: token})
		s.logger.Info("opportunity found",
			zap.String("symbol", token.Symbol),
			zap.Int("score", opportunity.Score),
			zap.String("action", opportunity.SuggestedAction))
	}
	return true
}
