//go:build wireinject
// +build wireinject

package internal

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dushixiang/solsnipe/pkg/feed"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/solsnipe/internal/config"
	"github.com/dushixiang/solsnipe/internal/events"
	"github.com/dushixiang/solsnipe/internal/handler"
	"github.com/dushixiang/solsnipe/internal/repo"
	"github.com/dushixiang/solsnipe/internal/service"
	"github.com/dushixiang/solsnipe/internal/telegram"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	telegramHTTPTimeout = 10 * time.Second
)

var (
	repoSet = wire.NewSet(
		repo.NewTokenRepo,
		repo.NewOpportunityRepo,
		repo.NewPortfolioRepo,
		repo.NewPositionRepo,
		repo.NewTradeRepo,
		repo.NewRiskPolicyRepo,
		repo.NewActivityRepo,
	)

	feedSet = wire.NewSet(
		provideBinanceClient,
		providePumpPortalClient,
		provideDexScreenerClient,
	)

	serviceSet = wire.NewSet(
		events.NewBus,
		provideStrategy,
		provideLedgerService,
		service.NewScannerService,
		service.NewTraderService,
	)

	handlerSet = wire.NewSet(
		handler.NewTradingHandler,
		handler.NewStreamHandler,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		repoSet,
		feedSet,
		serviceSet,
		handlerSet,
		provideOpenAIClient,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideBinanceClient provides Binance client
func provideBinanceClient(conf *config.Config, logger *zap.Logger) *feed.BinanceClient {
	client := feed.NewBinanceClient(
		conf.Binance.APIKey,
		conf.Binance.Secret,
		conf.Binance.ProxyURL,
	)

	logger.Info("Binance client initialized",
		zap.Bool("has_credentials", conf.Binance.APIKey != "" && conf.Binance.Secret != ""),
	)
	return client
}

// providePumpPortalClient provides pumpportal websocket client
func providePumpPortalClient(conf *config.Config, logger *zap.Logger) *feed.PumpPortalClient {
	return feed.NewPumpPortalClient(conf.Feed.PumpPortalURL, logger)
}

// provideDexScreenerClient provides dexscreener polling client
func provideDexScreenerClient(conf *config.Config, logger *zap.Logger) *feed.DexScreenerClient {
	return feed.NewDexScreenerClient(conf.Feed.DexScreenerURL, logger)
}

// provideOpenAIClient provides OpenAI client
func provideOpenAIClient(conf *config.Config, logger *zap.Logger) *openai.Client {
	var options = []option.RequestOption{
		option.WithBaseURL(conf.LLM.BaseURL),
		option.WithAPIKey(conf.LLM.APIKey),
	}
	if conf.LLM.ProxyURL != "" {
		u, err := url.Parse(conf.LLM.ProxyURL)
		if err != nil {
			logger.Fatal("failed to parse proxy URL", zap.Error(err))
		}
		httpClient := &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(u),
			},
		}
		options = append(options, option.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(options...)

	logger.Info("OpenAI client initialized",
		zap.String("model", conf.LLM.Model),
		zap.Bool("enabled", conf.LLM.Enabled),
	)
	return &client
}

// provideStrategy provides the trade decision strategy.
// LLM启用时使用顾问策略，否则使用规则策略
func provideStrategy(conf *config.Config, logger *zap.Logger, client *openai.Client) service.Strategy {
	maxTradeSize := conf.Trading.MaxTradeSize
	if maxTradeSize <= 0 {
		maxTradeSize = 0.5
	}
	rules := service.NewRuleStrategy(maxTradeSize)
	if conf.LLM.Enabled {
		return service.NewAdvisoryStrategy(logger, client, conf.LLM.Model, rules)
	}
	return rules
}

// provideLedgerService provides the paper trading ledger
func provideLedgerService(logger *zap.Logger, db *gorm.DB, bus *events.Bus, conf *config.Config,
	portfolioRepo *repo.PortfolioRepo, positionRepo *repo.PositionRepo, tradeRepo *repo.TradeRepo,
	riskPolicyRepo *repo.RiskPolicyRepo, activityRepo *repo.ActivityRepo) *service.LedgerService {
	return service.NewLedgerService(logger, db, bus, conf.Trading.InitialBalance,
		portfolioRepo, positionRepo, tradeRepo, riskPolicyRepo, activityRepo)
}
