package repo

import (
	"context"
	"time"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewOpportunityRepo(db *gorm.DB) *OpportunityRepo {
	return &OpportunityRepo{
		Repository: orz.NewRepository[models.Opportunity, string](db),
	}
}

type OpportunityRepo struct {
	orz.Repository[models.Opportunity, string]
}

// FindActive 获取未过期的机会，按评分降序
func (r OpportunityRepo) FindActive(ctx context.Context, now time.Time) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("expires_at > ?", now).
		Order("score DESC").
		Find(&opportunities).Error
	return opportunities, err
}

// DeleteExpired 清理已过期的机会
func (r OpportunityRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	db := r.GetDB(ctx)
	return db.Where("expires_at < ?", now).Delete(&models.Opportunity{}).Error
}
