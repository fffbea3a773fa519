package models

import (
	"time"

	"gorm.io/datatypes"
)

// 自动交易风格
const (
	ModeConservative = "conservative"
	ModeModerate     = "moderate"
	ModeAggressive   = "aggressive"
	ModeDegen        = "degen"
)

// ProfitTaking 阶梯止盈配置，数值为卖出比例（%）
type ProfitTaking struct {
	SellAt2x  float64 `json:"sell_at_2x"`
	SellAt5x  float64 `json:"sell_at_5x"`
	SellAt10x float64 `json:"sell_at_10x"`
}

// RiskPolicy 账户风控策略，每个钱包地址一条，每次交易前读取
type RiskPolicy struct {
	ID            string `gorm:"primaryKey;type:varchar(26)" json:"id"`
	WalletAddress string `gorm:"uniqueIndex;type:varchar(64);not null" json:"wallet_address"`

	// 限额
	MaxTradeSize float64 `gorm:"not null" json:"max_trade_size"` // 单笔上限（SOL）
	DailyLimit   float64 `gorm:"not null" json:"daily_limit"`    // 每日上限（SOL）
	SlippageCap  float64 `json:"slippage_cap"`                   // 滑点上限（%）

	// 白名单
	AllowedTokens datatypes.JSONSlice[string] `gorm:"type:json" json:"allowed_tokens"`
	AllowedDexes  datatypes.JSONSlice[string] `gorm:"type:json" json:"allowed_dexes"`

	AutonomousMode string                           `gorm:"type:varchar(16);not null" json:"autonomous_mode"` // conservative/moderate/aggressive/degen
	ProfitTaking   datatypes.JSONType[ProfitTaking] `gorm:"type:json" json:"profit_taking"`

	// 风险过滤
	MinLiquidity float64   `json:"min_liquidity"`
	MinHolders   int       `json:"min_holders"`
	MaxRisk      RiskLevel `gorm:"type:varchar(10)" json:"max_risk"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	IsPaused  bool      `gorm:"not null;default:false" json:"is_paused"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (RiskPolicy) TableName() string {
	return "risk_policies"
}
