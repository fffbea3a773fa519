package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.Position, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.Position, string]
}

// FindByPortfolioID 获取账户的所有持仓
func (r PositionRepo) FindByPortfolioID(ctx context.Context, portfolioID string) ([]models.Position, error) {
	var positions []models.Position
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("portfolio_id = ?", portfolioID).
		Find(&positions).Error
	return positions, err
}

// FindByPortfolioAndToken 查找账户在指定代币上的持仓
func (r PositionRepo) FindByPortfolioAndToken(ctx context.Context, portfolioID, tokenAddress string) (m models.Position, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("portfolio_id = ? AND token_address = ?", portfolioID, tokenAddress).
		First(&m).Error
	return m, err
}

// DeleteByPortfolioID 删除账户的全部持仓
func (r PositionRepo) DeleteByPortfolioID(ctx context.Context, portfolioID string) error {
	db := r.GetDB(ctx)
	return db.Where("portfolio_id = ?", portfolioID).Delete(&models.Position{}).Error
}
