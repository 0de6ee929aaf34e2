// Package domain 包含账户服务的领域模型：交易账户、资金流水与现金结算
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType 账户类型
type AccountType string

const (
	// AccountTypeCash 现金账户，余额不得为负
	AccountTypeCash AccountType = "CASH"
)

// AccountStatus 账户状态
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

var (
	// ErrAccountNotFound 账户不存在
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInactive 账户不可用
	ErrAccountInactive = errors.New("account is inactive")
	// ErrInsufficientBalance 余额不足，扣减会导致负余额
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// TradingAccount 交易账户实体
// 余额仅由结算流程在账户行锁内变更
type TradingAccount struct {
	gorm.Model
	// 账户 ID (业务主键)
	AccountID string `gorm:"column:account_id;type:varchar(32);uniqueIndex;not null" json:"account_id"`
	// 账户类型
	AccountType AccountType `gorm:"column:account_type;type:varchar(20);not null" json:"account_type"`
	// 币种
	Currency string `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	// 余额
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(32,18);default:0;not null" json:"balance"`
	// 状态
	Status AccountStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
}

// TableName 表名
func (TradingAccount) TableName() string {
	return "trading_accounts"
}

// NewTradingAccount 创建现金账户
func NewTradingAccount(accountID, currency string) *TradingAccount {
	return &TradingAccount{
		AccountID:   accountID,
		AccountType: AccountTypeCash,
		Currency:    currency,
		Balance:     decimal.Zero,
		Status:      AccountStatusActive,
	}
}

// IsActive 账户是否可用
func (a *TradingAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsCash 是否现金账户
func (a *TradingAccount) IsCash() bool {
	return a.AccountType == AccountTypeCash
}

// Debit 扣减余额，现金账户余额不得为负
func (a *TradingAccount) Debit(amount decimal.Decimal) error {
	newBalance := a.Balance.Sub(amount)
	if a.IsCash() && newBalance.IsNegative() {
		return ErrInsufficientBalance
	}
	a.Balance = newBalance
	return nil
}

// Credit 增加余额
func (a *TradingAccount) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// AccountRepository 账户仓储接口
type AccountRepository interface {
	// Create 创建账户
	Create(ctx context.Context, account *TradingAccount) error
	// Get 按账户 ID 获取账户快照
	Get(ctx context.Context, accountID string) (*TradingAccount, error)
	// GetForUpdate 在当前事务内加排他锁后获取账户
	GetForUpdate(ctx context.Context, accountID string) (*TradingAccount, error)
	// Save 保存账户（含余额变更）
	Save(ctx context.Context, account *TradingAccount) error
}
