package mysql

import (
	"context"
	"errors"

	pkgdb "github.com/wyfcoding/tradingvenue/pkg/db"
	"github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	"gorm.io/gorm"
)

type instrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository 创建标的仓储
func NewInstrumentRepository(db *gorm.DB) domain.InstrumentRepository {
	return &instrumentRepository{db: db}
}

func (r *instrumentRepository) conn(ctx context.Context) *gorm.DB {
	return pkgdb.FromContext(ctx, r.db)
}

func (r *instrumentRepository) Save(ctx context.Context, instrument *domain.Instrument) error {
	return r.conn(ctx).Save(instrument).Error
}

func (r *instrumentRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	var instrument domain.Instrument
	err := r.conn(ctx).Where("symbol = ?", symbol).First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInstrumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &instrument, nil
}

func (r *instrumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Instrument, int64, error) {
	var instruments []*domain.Instrument
	var total int64

	db := r.conn(ctx).Model(&domain.Instrument{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("symbol").Limit(limit).Offset(offset).Find(&instruments).Error
	return instruments, total, err
}
