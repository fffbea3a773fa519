package models

import (
	"time"

	"gorm.io/datatypes"
)

// 活动类型
const (
	ActivityTrade   = "trade"
	ActivityScan    = "scan"
	ActivityBlocked = "blocked"
	ActivityAlert   = "alert"
	ActivitySnipe   = "snipe"
	ActivityExit    = "exit"
	ActivityRug     = "rug"
)

// Activity 活动日志，只增不改，用于前端回放与审计
type Activity struct {
	ID          string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	PortfolioID string         `gorm:"type:varchar(26);index" json:"portfolio_id"` // 可为空
	Type        string         `gorm:"type:varchar(16);not null" json:"type"`
	Message     string         `gorm:"type:varchar(512);not null" json:"message"`
	Data        datatypes.JSON `gorm:"type:json" json:"data,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Activity) TableName() string {
	return "activities"
}
