package models

import (
	"time"
)

// Position 持仓信息，按（账户，代币地址）唯一，数量为0时删除整行
type Position struct {
	ID           string `gorm:"primaryKey;type:varchar(26)" json:"id"`
	PortfolioID  string `gorm:"type:varchar(26);not null;uniqueIndex:idx_portfolio_token" json:"portfolio_id"`
	TokenAddress string `gorm:"type:varchar(64);not null;uniqueIndex:idx_portfolio_token" json:"token_address"`
	TokenSymbol  string `gorm:"type:varchar(32);not null" json:"token_symbol"`

	Quantity      float64 `gorm:"not null" json:"quantity"`        // 持有数量，行存在期间恒大于0
	AvgEntryPrice float64 `gorm:"not null" json:"avg_entry_price"` // 加权平均建仓价（SOL）
	CurrentPrice  float64 `json:"current_price"`
	EntryValue    float64 `gorm:"not null" json:"entry_value"` // 建仓成本（SOL）
	CurrentValue  float64 `json:"current_value"`
	Pnl           float64 `json:"pnl"` // 未实现盈亏（SOL）
	PnlPercent    float64 `json:"pnl_percent"`

	OpenedAt  time.Time `gorm:"not null" json:"opened_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Position) TableName() string {
	return "positions"
}

// Multiplier 当前价相对建仓价的倍数
func (p *Position) Multiplier() float64 {
	if p.AvgEntryPrice == 0 {
		return 1
	}
	return p.CurrentPrice / p.AvgEntryPrice
}
