package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams        = orz.NewError(10400, "参数无效")
	ErrPortfolioNotFound    = orz.NewError(10404, "账户不存在")
	ErrTradeSizeExceeded    = orz.NewError(10010, "交易金额超过单笔上限")
	ErrDailyLimitExceeded   = orz.NewError(10011, "交易金额超过每日上限")
	ErrInsufficientBalance  = orz.NewError(10012, "SOL余额不足")
	ErrNoPosition           = orz.NewError(10013, "没有该代币的持仓")
	ErrInsufficientPosition = orz.NewError(10014, "持仓数量不足")
	ErrInvalidTradeSide     = orz.NewError(10015, "交易方向无效")
	ErrInvalidAmount        = orz.NewError(10016, "交易数量必须大于0")
	ErrInvalidPrice         = orz.NewError(10017, "成交价格必须大于0")
	ErrTraderAlreadyRunning = orz.NewError(10020, "自动交易已在运行")
	ErrTraderNotRunning     = orz.NewError(10021, "自动交易未在运行")
)
