package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewActivityRepo(db *gorm.DB) *ActivityRepo {
	return &ActivityRepo{
		Repository: orz.NewRepository[models.Activity, string](db),
	}
}

type ActivityRepo struct {
	orz.Repository[models.Activity, string]
}

// FindRecentByPortfolio 获取账户最近的活动日志
func (r ActivityRepo) FindRecentByPortfolio(ctx context.Context, portfolioID string, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

// DeleteByPortfolioID 删除账户的全部活动日志
func (r ActivityRepo) DeleteByPortfolioID(ctx context.Context, portfolioID string) error {
	db := r.GetDB(ctx)
	return db.Where("portfolio_id = ?", portfolioID).Delete(&models.Activity{}).Error
}
