package mysql

import (
	"context"

	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"gorm.io/gorm"
)

type executionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository 创建成交仓储
func NewExecutionRepository(db *gorm.DB) domain.ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *executionRepository) Append(ctx context.Context, execution *domain.Execution) error {
	return r.conn(ctx).Create(execution).Error
}

func (r *executionRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	var executions []*domain.Execution
	err := r.conn(ctx).Where("order_id = ?", orderID).Order("executed_at ASC").Find(&executions).Error
	return executions, err
}
