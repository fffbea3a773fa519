package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{
		Repository: orz.NewRepository[models.Token, string](db),
	}
}

type TokenRepo struct {
	orz.Repository[models.Token, string]
}

// FindByAddress 根据合约地址查找代币
func (r TokenRepo) FindByAddress(ctx context.Context, address string) (m models.Token, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("address = ?", address).
		First(&m).Error
	return m, err
}

// FindRecent 获取最近发现的代币
func (r TokenRepo) FindRecent(ctx context.Context, limit int) ([]models.Token, error) {
	var tokens []models.Token
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("launched_at DESC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, err
}

// FindBySource 获取指定来源的代币
func (r TokenRepo) FindBySource(ctx context.Context, source string, limit int) ([]models.Token, error) {
	var tokens []models.Token
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("source = ?", source).
		Order("launched_at DESC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, err
}

// UpdateSnapshot 只更新市场快照字段，不触碰身份字段
func (r TokenRepo) UpdateSnapshot(ctx context.Context, address string, fields map[string]any) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("address = ?", address).
		Updates(fields).Error
}

// UpdatePrice 更新最新价格
func (r TokenRepo) UpdatePrice(ctx context.Context, address string, price float64) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("address = ?", address).
		Update("price", price).Error
}
