package mysql

import (
	"context"

	"github.com/wyfcoding/tradingvenue/internal/account/domain"
	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建资金流水仓储
func NewLedgerRepository(db *gorm.DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.conn(ctx).Create(entry).Error
}

func (r *ledgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, int64, error) {
	var entries []*domain.LedgerEntry
	var total int64

	db := r.conn(ctx).Model(&domain.LedgerEntry{}).Where("account_id = ?", accountID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("occurred_at ASC, id ASC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}
