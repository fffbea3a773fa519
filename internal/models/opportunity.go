package models

import (
	"time"
)

// Opportunity 扫描器识别出的交易机会，带过期时间
type Opportunity struct {
	ID              string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TokenAddress    string    `gorm:"type:varchar(64);not null;index" json:"token_address"`
	Type            string    `gorm:"type:varchar(16);not null" json:"type"` // new_launch/breakout
	Score           int       `gorm:"not null" json:"score"`                 // 0-100
	Reason          string    `gorm:"type:varchar(256)" json:"reason"`
	SuggestedAction string    `gorm:"type:varchar(10);not null" json:"suggested_action"` // buy/watch/avoid
	SuggestedSize   float64   `json:"suggested_size"`                                    // 建议买入金额（SOL）
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Opportunity) TableName() string {
	return "opportunities"
}
