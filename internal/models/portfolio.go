package models

import (
	"time"
)

// Portfolio 模拟交易账户，按（钱包地址，网络）唯一
type Portfolio struct {
	ID            string `gorm:"primaryKey;type:varchar(26)" json:"id"`
	WalletAddress string `gorm:"type:varchar(64);not null;uniqueIndex:idx_wallet_network" json:"wallet_address"`
	Network       string `gorm:"type:varchar(16);not null;uniqueIndex:idx_wallet_network" json:"network"` // mainnet-beta/devnet

	SolBalance     float64 `gorm:"not null" json:"sol_balance"` // 模拟SOL余额，任何时刻不可为负
	TotalDeposited float64 `json:"total_deposited"`

	// 累计统计
	TotalPnl    float64 `json:"total_pnl"`    // 已实现盈亏（SOL）
	TotalTrades int     `json:"total_trades"` // 累计成交笔数
	WinRate     float64 `json:"win_rate"`     // 逐笔增量更新的胜率（%）
	BestTrade   float64 `json:"best_trade"`   // 历史最佳卖出倍数
	RugsAvoided int     `json:"rugs_avoided"` // 被风控拦截的危险代币数

	// 当日限额跟踪
	DailySpent      float64   `json:"daily_spent"`
	DailySpentReset time.Time `gorm:"not null" json:"daily_spent_reset"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Portfolio) TableName() string {
	return "portfolios"
}
