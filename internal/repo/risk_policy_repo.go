package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewRiskPolicyRepo(db *gorm.DB) *RiskPolicyRepo {
	return &RiskPolicyRepo{
		Repository: orz.NewRepository[models.RiskPolicy, string](db),
	}
}

type RiskPolicyRepo struct {
	orz.Repository[models.RiskPolicy, string]
}

// FindByWallet 根据钱包地址查找风控策略
func (r RiskPolicyRepo) FindByWallet(ctx context.Context, walletAddress string) (m models.RiskPolicy, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("wallet_address = ?", walletAddress).
		First(&m).Error
	return m, err
}
