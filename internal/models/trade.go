package models

import (
	"time"
)

// 交易来源
const (
	TradeSourceManual     = "manual"
	TradeSourceAuto       = "auto"
	TradeSourceDCA        = "dca"
	TradeSourceProfitTake = "profit-take"
	TradeSourceStopLoss   = "stop-loss"
)

// Trade 交易记录，只增不改
type Trade struct {
	ID           string `gorm:"primaryKey;type:varchar(26)" json:"id"`
	PortfolioID  string `gorm:"type:varchar(26);not null;index" json:"portfolio_id"`
	TokenAddress string `gorm:"type:varchar(64);not null;index" json:"token_address"`
	TokenSymbol  string `gorm:"type:varchar(32);not null" json:"token_symbol"`

	Side     string  `gorm:"type:varchar(4);not null" json:"side"` // buy/sell
	Quantity float64 `gorm:"not null" json:"quantity"`             // 成交数量（代币）
	Price    float64 `gorm:"not null" json:"price"`                // 成交价格（SOL）
	Value    float64 `gorm:"not null" json:"value"`                // 成交金额（SOL）

	// 仅卖出时有值
	Pnl        float64 `json:"pnl"`
	Multiplier float64 `json:"multiplier"`

	Source string `gorm:"type:varchar(16);not null" json:"source"` // manual/auto/dca/profit-take/stop-loss
	Reason string `gorm:"type:varchar(256)" json:"reason"`
	Status string `gorm:"type:varchar(10);not null" json:"status"` // executed

	ExecutedAt time.Time `gorm:"not null;index" json:"executed_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}
