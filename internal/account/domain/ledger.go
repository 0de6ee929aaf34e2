package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntryType 资金流水类型
type LedgerEntryType string

const (
	LedgerEntryTypeDebit  LedgerEntryType = "DEBIT"
	LedgerEntryTypeCredit LedgerEntryType = "CREDIT"
)

// LedgerEntry 资金流水实体
// 只追加不修改，balance_after 在同一原子更新内写入，
// 任意时刻账户余额等于初始余额加全部流水的有符号和
type LedgerEntry struct {
	gorm.Model
	// 流水 ID (业务主键)
	EntryID string `gorm:"column:entry_id;type:varchar(32);uniqueIndex;not null" json:"entry_id"`
	// 账户 ID
	AccountID string `gorm:"column:account_id;type:varchar(32);index;not null" json:"account_id"`
	// 发生时间
	OccurredAt time.Time `gorm:"column:occurred_at;index;not null" json:"occurred_at"`
	// 类型：DEBIT 扣减，CREDIT 增加
	Type LedgerEntryType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	// 金额（含费用的净变动额，恒为正）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 费用
	Fee decimal.Decimal `gorm:"column:fee;type:decimal(32,18);default:0;not null" json:"fee"`
	// 币种
	Currency string `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	// 该笔流水入账后的余额快照
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(32,18);not null" json:"balance_after"`
	// 关联引用（订单/成交 ID）
	Reference string `gorm:"column:reference;type:varchar(64);index" json:"reference"`
	// 备注
	Remarks string `gorm:"column:remarks;type:varchar(255)" json:"remarks"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// SignedAmount 有符号金额，DEBIT 为负
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Type == LedgerEntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// LedgerRepository 资金流水仓储接口，只追加
type LedgerRepository interface {
	// Append 追加一条流水
	Append(ctx context.Context, entry *LedgerEntry) error
	// ListByAccount 按时间顺序分页获取账户流水
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*LedgerEntry, int64, error)
}
