package repo

import (
	"context"

	"github.com/dushixiang/solsnipe/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPortfolioRepo(db *gorm.DB) *PortfolioRepo {
	return &PortfolioRepo{
		Repository: orz.NewRepository[models.Portfolio, string](db),
	}
}

type PortfolioRepo struct {
	orz.Repository[models.Portfolio, string]
}

// FindByWalletAndNetwork 根据钱包地址和网络查找账户
func (r PortfolioRepo) FindByWalletAndNetwork(ctx context.Context, walletAddress, network string) (m models.Portfolio, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("wallet_address = ? AND network = ?", walletAddress, network).
		First(&m).Error
	return m, err
}
