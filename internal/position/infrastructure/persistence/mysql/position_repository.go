// Package mysql 持仓服务的 MySQL 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/tradingvenue/internal/position/domain"
	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository 创建持仓仓储
func NewPositionRepository(db *gorm.DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *positionRepository) Get(ctx context.Context, accountID, symbol string) (*domain.Position, error) {
	var position domain.Position
	err := r.conn(ctx).Where("account_id = ? AND symbol = ?", accountID, symbol).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// GetForUpdate 加排他行锁读取持仓，必须在事务内调用；
// 不存在时返回 (nil, nil)，由调用方决定是否创建
func (r *positionRepository) GetForUpdate(ctx context.Context, accountID, symbol string) (*domain.Position, error) {
	var position domain.Position
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *positionRepository) Save(ctx context.Context, position *domain.Position) error {
	return r.conn(ctx).Save(position).Error
}

func (r *positionRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.conn(ctx).Where("account_id = ?", accountID).Order("symbol").Find(&positions).Error
	return positions, err
}
