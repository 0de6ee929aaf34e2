// Package application 账户服务的应用层：开户、入金与流水查询用例
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradingvenue/internal/account/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// TxManager 事务管理接口，事务句柄经 context 传递给仓储
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDAllocator 账户 ID 分配接口
type IDAllocator interface {
	AccountID() string
}

// AccountDTO 账户 DTO
type AccountDTO struct {
	AccountID   string `json:"account_id"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	Status      string `json:"status"`
}

// LedgerEntryDTO 资金流水 DTO
type LedgerEntryDTO struct {
	EntryID      string `json:"entry_id"`
	AccountID    string `json:"account_id"`
	OccurredAt   int64  `json:"occurred_at"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee"`
	Currency     string `json:"currency"`
	BalanceAfter string `json:"balance_after"`
	Reference    string `json:"reference"`
	Remarks      string `json:"remarks"`
}

// AccountService 账户应用服务
type AccountService struct {
	accountRepo domain.AccountRepository
	ledgerRepo  domain.LedgerRepository
	settlement  *domain.CashSettlementService
	txManager   TxManager
	ids         IDAllocator
}

// NewAccountService 创建账户应用服务
func NewAccountService(
	accountRepo domain.AccountRepository,
	ledgerRepo domain.LedgerRepository,
	settlement *domain.CashSettlementService,
	txManager TxManager,
	ids IDAllocator,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		settlement:  settlement,
		txManager:   txManager,
		ids:         ids,
	}
}

// OpenAccount 开立现金账户，初始余额为零
func (s *AccountService) OpenAccount(ctx context.Context, currency string) (*AccountDTO, error) {
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}

	account := domain.NewTradingAccount(s.ids.AccountID(), currency)
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Info(ctx, "Account opened", "account_id", account.AccountID, "currency", currency)
	return toAccountDTO(account), nil
}

// Deposit 入金，余额变更与流水在同一事务内完成
func (s *AccountService) Deposit(ctx context.Context, accountID, amount string) (*LedgerEntryDTO, error) {
	depositAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var entry *domain.LedgerEntry
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.accountRepo.GetForUpdate(txCtx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return domain.ErrAccountInactive
		}

		entry, err = s.settlement.SettleDeposit(account, depositAmount, "", time.Now())
		if err != nil {
			return err
		}

		if err := s.ledgerRepo.Append(txCtx, entry); err != nil {
			return err
		}
		return s.accountRepo.Save(txCtx, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Deposit settled", "account_id", accountID, "amount", depositAmount.String())
	return toLedgerEntryDTO(entry), nil
}

// GetAccount 获取账户快照
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*AccountDTO, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toAccountDTO(account), nil
}

// ListLedger 按时间顺序分页获取账户流水
func (s *AccountService) ListLedger(ctx context.Context, accountID string, limit, offset int) ([]*LedgerEntryDTO, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, total, err := s.ledgerRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*LedgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toLedgerEntryDTO(entry))
	}
	return dtos, total, nil
}

func toAccountDTO(account *domain.TradingAccount) *AccountDTO {
	return &AccountDTO{
		AccountID:   account.AccountID,
		AccountType: string(account.AccountType),
		Currency:    account.Currency,
		Balance:     account.Balance.String(),
		Status:      string(account.Status),
	}
}

func toLedgerEntryDTO(entry *domain.LedgerEntry) *LedgerEntryDTO {
	return &LedgerEntryDTO{
		EntryID:      entry.EntryID,
		AccountID:    entry.AccountID,
		OccurredAt:   entry.OccurredAt.UnixMilli(),
		Type:         string(entry.Type),
		Amount:       entry.Amount.String(),
		Fee:          entry.Fee.String(),
		Currency:     entry.Currency,
		BalanceAfter: entry.BalanceAfter.String(),
		Reference:    entry.Reference,
		Remarks:      entry.Remarks,
	}
}
