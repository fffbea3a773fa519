package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, string](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, string]
}

// FindRecentByPortfolio 获取账户最近的交易记录
func (r TradeRepo) FindRecentByPortfolio(ctx context.Context, portfolioID string, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// CountByPortfolio 统计账户的交易笔数
func (r TradeRepo) CountByPortfolio(ctx context.Context, portfolioID string) (int64, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("portfolio_id = ?", portfolioID).
		Count(&count).Error
	return count, err
}

// DeleteByPortfolioID 删除账户的全部交易记录
func (r TradeRepo) DeleteByPortfolioID(ctx context.Context, portfolioID string) error {
	db := r.GetDB(ctx)
	return db.Where("portfolio_id = ?", portfolioID).Delete(&models.Trade{}).Error
}
