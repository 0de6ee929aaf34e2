// Package mysql 订单服务的 MySQL 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.conn(ctx).Create(order).Error
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.conn(ctx).Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate 加排他行锁读取订单，必须在事务内调用
func (r *orderRepository) GetForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.conn(ctx).Save(order).Error
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, int64, error) {
	var orders []*domain.Order
	var total int64

	db := r.conn(ctx).Model(&domain.Order{}).Where("account_id = ?", accountID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) ListRestingBySymbol(ctx context.Context, symbol string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.conn(ctx).
		Where("symbol = ? AND status = ?", symbol, domain.OrderStatusAccepted).
		Order("submitted_at ASC").
		Find(&orders).Error
	return orders, err
}
