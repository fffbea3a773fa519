package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dushixiang/solsnipe/internal/config"
	"github.com/dushixiang/solsnipe/internal/handler"
	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/dushixiang/solsnipe/internal/service"
	"github.com/dushixiang/solsnipe/internal/telegram"
	"github.com/dushixiang/solsnipe/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewSolsnipeApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewSolsnipeApp() orz.Application {
	return &SolsnipeApp{}
}

var _ orz.Application = (*SolsnipeApp)(nil)

type AppComponents struct {
	TradingHandler *handler.TradingHandler
	StreamHandler  *handler.StreamHandler

	LedgerService  *service.LedgerService
	ScannerService *service.ScannerService
	TraderService  *service.TraderService

	tg *telegram.Telegram
}

type SolsnipeApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *SolsnipeApp) GetComponents() *AppComponents {
	return r.components
}

func (r *SolsnipeApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.Token{}, models.Opportunity{},
		models.Portfolio{}, models.Position{}, models.Trade{},
		models.RiskPolicy{}, models.Activity{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		r.components.TradingHandler.RegisterRoutes(api)
		r.components.StreamHandler.RegisterRoutes(api)
	}

	return nil
}

func (r *SolsnipeApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Solsnipe Paper Trading System Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	go components.StreamHandler.Run(ctx)

	if err := components.ScannerService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start token scanner: %v", err)
	}
	logger.Info("token scanner started")

	if r.conf.Trading.AutoStart {
		go func() {
			if err := components.TraderService.Start(ctx); err != nil {
				logger.Error("failed to start auto trader", zap.Error(err))
			}
		}()
	}

	if components.tg != nil {
		components.tg.Start()
	}

	return nil
}
