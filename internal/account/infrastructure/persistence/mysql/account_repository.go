// Package mysql 账户服务的 MySQL 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/tradingvenue/internal/account/domain"
	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *accountRepository) Create(ctx context.Context, account *domain.TradingAccount) error {
	return r.conn(ctx).Create(account).Error
}

func (r *accountRepository) Get(ctx context.Context, accountID string) (*domain.TradingAccount, error) {
	var account domain.TradingAccount
	err := r.conn(ctx).Where("account_id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetForUpdate 加排他行锁读取账户，必须在事务内调用，
// 锁持有至事务提交或回滚
func (r *accountRepository) GetForUpdate(ctx context.Context, accountID string) (*domain.TradingAccount, error) {
	var account domain.TradingAccount
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Save(ctx context.Context, account *domain.TradingAccount) error {
	return r.conn(ctx).Save(account).Error
}
