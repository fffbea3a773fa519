package handler

import (
	"net/http"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/dushixiang/solsnipe/internal/service"
	"github.com/dushixiang/solsnipe/internal/xe"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// TradingHandler 交易与行情HTTP处理器
type TradingHandler struct {
	ledger  *service.LedgerService
	scanner *service.ScannerService
	trader  *service.TraderService
	logger  *zap.Logger
}

// NewTradingHandler 创建交易处理器
func NewTradingHandler(
	ledger *service.LedgerService,
	scanner *service.ScannerService,
	trader *service.TraderService,
	logger *zap.Logger,
) *TradingHandler {
	return &TradingHandler{
		ledger:  ledger,
		scanner: scanner,
		trader:  trader,
		logger:  logger,
	}
}

// RegisterRoutes 注册路由
func (h *TradingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)

	g.GET("/tokens", h.GetTokens)
	g.GET("/opportunities", h.GetOpportunities)

	g.GET("/config/:walletAddress", h.GetConfig)
	g.POST("/config", h.SaveConfig)
	g.POST("/config/:walletAddress/pause", h.PauseConfig)

	g.GET("/portfolio/:walletAddress", h.GetPortfolio)
	g.GET("/portfolio/:walletAddress/stats", h.GetPortfolioStats)
	g.POST("/portfolio/:walletAddress/reset", h.ResetPortfolio)

	g.POST("/trade", h.ExecuteTrade)
	g.GET("/trades/:walletAddress", h.GetTrades)
	g.GET("/activity/:walletAddress", h.GetActivity)

	g.POST("/trader/start", h.StartTrader)
	g.POST("/trader/stop", h.StopTrader)
	g.GET("/trader/status", h.TraderStatus)
}

// Health 健康检查
// GET /api/health
func (h *TradingHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetTokens 最近发现的代币
// GET /api/tokens?limit=20&source=pumpfun
func (h *TradingHandler) GetTokens(c echo.Context) error {
	ctx := c.Request().Context()
	limit := cast.ToInt(c.QueryParam("limit"))
	source := c.QueryParam("source")

	var (
		tokens []models.Token
		err    error
	)
	if source != "" {
		tokens, err = h.scanner.ListTokensBySource(ctx, source, limit)
	} else {
		tokens, err = h.scanner.ListRecentTokens(ctx, limit)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tokens": tokens,
	})
}

// GetOpportunities 当前有效机会
// GET /api/opportunities
func (h *TradingHandler) GetOpportunities(c echo.Context) error {
	ctx := c.Request().Context()
	opportunities, err := h.scanner.ListOpportunities(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"opportunities": opportunities,
	})
}

// GetConfig 获取风控策略
// GET /api/config/:walletAddress
func (h *TradingHandler) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	policy, err := h.ledger.GetRiskPolicy(ctx, c.Param("walletAddress"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Config not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"config": policy,
	})
}

type saveConfigRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	service.RiskPolicyUpdate
}

// SaveConfig 创建或部分更新风控策略
// POST /api/config
func (h *TradingHandler) SaveConfig(c echo.Context) error {
	ctx := c.Request().Context()
	var req saveConfigRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	policy, err := h.ledger.SaveRiskPolicy(ctx, req.WalletAddress, req.RiskPolicyUpdate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"config": policy,
	})
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

// PauseConfig 暂停或恢复交易校验
// POST /api/config/:walletAddress/pause
func (h *TradingHandler) PauseConfig(c echo.Context) error {
	ctx := c.Request().Context()
	var req pauseRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	policy, err := h.ledger.SetPaused(ctx, c.Param("walletAddress"), req.Paused)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"config": policy,
	})
}

func networkParam(c echo.Context) string {
	network := c.QueryParam("network")
	if network == "" {
		network = "devnet"
	}
	return network
}

// GetPortfolio 获取账户（不存在则创建）及统计
// GET /api/portfolio/:walletAddress?network=devnet
func (h *TradingHandler) GetPortfolio(c echo.Context) error {
	ctx := c.Request().Context()
	walletAddress := c.Param("walletAddress")
	network := networkParam(c)

	portfolio, err := h.ledger.GetOrCreatePortfolio(ctx, walletAddress, network)
	if err != nil {
		return err
	}
	positions, err := h.ledger.ListPositions(ctx, portfolio.ID)
	if err != nil {
		return err
	}
	stats, err := h.ledger.GetPortfolioStats(ctx, walletAddress, network)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"portfolio": portfolio,
		"positions": positions,
		"stats":     stats,
	})
}

// GetPortfolioStats 账户统计
// GET /api/portfolio/:walletAddress/stats
func (h *TradingHandler) GetPortfolioStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.ledger.GetPortfolioStats(ctx, c.Param("walletAddress"), networkParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}

// ResetPortfolio 重置账户
// POST /api/portfolio/:walletAddress/reset
func (h *TradingHandler) ResetPortfolio(c echo.Context) error {
	ctx := c.Request().Context()
	walletAddress := c.Param("walletAddress")
	network := networkParam(c)

	if err := h.ledger.ResetPortfolio(ctx, walletAddress, network); err != nil {
		return err
	}
	h.trader.ResetDaily()
	portfolio, err := h.ledger.GetOrCreatePortfolio(ctx, walletAddress, network)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"portfolio": portfolio,
		"message":   "Portfolio reset successfully",
	})
}

type executeTradeRequest struct {
	WalletAddress string  `json:"walletAddress" validate:"required"`
	TokenAddress  string  `json:"tokenAddress" validate:"required"`
	TokenSymbol   string  `json:"tokenSymbol"`
	Side          string  `json:"side" validate:"required,oneof=buy sell"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Price         float64 `json:"price"`
	Source        string  `json:"source"`
	Reason        string  `json:"reason"`
	Network       string  `json:"network"`
}

// ExecuteTrade 手动执行一笔模拟成交
// POST /api/trade
func (h *TradingHandler) ExecuteTrade(c echo.Context) error {
	ctx := c.Request().Context()
	var req executeTradeRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	symbol := req.TokenSymbol
	if symbol == "" && len(req.TokenAddress) >= 6 {
		symbol = req.TokenAddress[:6]
	}
	price := req.Price
	if price <= 0 {
		price = 0.0001
	}
	network := req.Network
	if network == "" {
		network = "devnet"
	}

	trade, err := h.ledger.ExecuteTrade(ctx, service.TradeRequest{
		WalletAddress: req.WalletAddress,
		Network:       network,
		TokenAddress:  req.TokenAddress,
		TokenSymbol:   symbol,
		Side:          req.Side,
		Amount:        req.Amount,
		Price:         price,
		Source:        req.Source,
		Reason:        req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"trade":   trade,
	})
}

// GetTrades 成交历史
// GET /api/trades/:walletAddress?limit=50
func (h *TradingHandler) GetTrades(c echo.Context) error {
	ctx := c.Request().Context()
	portfolio, err := h.ledger.GetPortfolio(ctx, c.Param("walletAddress"), networkParam(c))
	if err != nil {
		return err
	}
	trades, err := h.ledger.ListTrades(ctx, portfolio.ID, cast.ToInt(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"trades": trades,
	})
}

// GetActivity 活动日志
// GET /api/activity/:walletAddress?limit=50
func (h *TradingHandler) GetActivity(c echo.Context) error {
	ctx := c.Request().Context()
	portfolio, err := h.ledger.GetPortfolio(ctx, c.Param("walletAddress"), networkParam(c))
	if err != nil {
		return err
	}
	activities, err := h.ledger.ListActivities(ctx, portfolio.ID, cast.ToInt(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"activities": activities,
	})
}

// StartTrader 启动自动交易
// POST /api/trader/start
func (h *TradingHandler) StartTrader(c echo.Context) error {
	if err := h.trader.Start(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  h.trader.GetStatus(),
	})
}

// StopTrader 停止自动交易
// POST /api/trader/stop
func (h *TradingHandler) StopTrader(c echo.Context) error {
	if err := h.trader.Stop(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// TraderStatus 自动交易状态
// GET /api/trader/status
func (h *TradingHandler) TraderStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": h.trader.GetStatus(),
	})
}
