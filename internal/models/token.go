package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskLevel 代币风险等级
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskRisky   RiskLevel = "risky"
	RiskDanger  RiskLevel = "danger"
	RiskUnknown RiskLevel = "unknown"
)

// Token 链上发现的代币
type Token struct {
	ID       string `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Address  string `gorm:"uniqueIndex;type:varchar(64);not null" json:"address"` // 代币合约地址
	Symbol   string `gorm:"type:varchar(32);not null" json:"symbol"`
	Name     string `gorm:"type:varchar(128)" json:"name"`
	Decimals int    `json:"decimals"`
	Source   string `gorm:"type:varchar(16);index" json:"source"` // pumpfun/raydium/jupiter/unknown

	// 市场快照
	Price          float64 `json:"price"`            // 最近一次上报价格（SOL）
	PriceChange24h float64 `json:"price_change_24h"` // 24小时涨跌幅（%）
	MarketCap      float64 `json:"market_cap"`       // 市值（USD）
	Volume24h      float64 `json:"volume_24h"`       // 24小时成交量
	Liquidity      float64 `json:"liquidity"`        // 流动性（SOL）
	Holders        int     `json:"holders"`          // 持有人数量，0表示未知

	// 风险评估
	Risk        RiskLevel                   `gorm:"type:varchar(10);index" json:"risk"`
	RiskReasons datatypes.JSONSlice[string] `gorm:"type:json" json:"risk_reasons"`

	// 元数据
	ImageURL string `gorm:"type:varchar(512)" json:"image_url"`
	Website  string `gorm:"type:varchar(512)" json:"website"`
	Twitter  string `gorm:"type:varchar(512)" json:"twitter"`

	LaunchedAt time.Time `gorm:"not null;index" json:"launched_at"` // 代币创建时间（来自数据源）
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Token) TableName() string {
	return "tokens"
}

// AgeMinutes 代币年龄（分钟）
func (t *Token) AgeMinutes() float64 {
	return time.Since(t.LaunchedAt).Minutes()
}
