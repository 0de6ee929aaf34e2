package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerIDAllocator 流水 ID 分配接口
type LedgerIDAllocator interface {
	LedgerEntryID() string
}

// CashSettlementService 现金结算领域服务
// 推导成交对应的资金流水并变更账户余额：
// 买入记 DEBIT，卖出记 CREDIT，balance_after 与余额在同一原子单元内写入。
// 余额校验在账户行锁内执行，作为校验阶段之后的防御性复核——
// 同账户的并发订单可能在校验与结算之间改变余额
type CashSettlementService struct {
	ids LedgerIDAllocator
}

// NewCashSettlementService 创建现金结算领域服务
func NewCashSettlementService(ids LedgerIDAllocator) *CashSettlementService {
	return &CashSettlementService{ids: ids}
}

// SettleBuyFill 结算一笔买入成交
// debit = qty*price + fee；扣减后余额为负时返回 ErrInsufficientBalance，
// 由调用方回滚整个成交单元
func (s *CashSettlementService) SettleBuyFill(account *TradingAccount, qty, price, fee decimal.Decimal, reference string, now time.Time) (*LedgerEntry, error) {
	debitAmount := qty.Mul(price).Add(fee)

	if err := account.Debit(debitAmount); err != nil {
		return nil, fmt.Errorf("debit %s on account %s: %w", debitAmount.String(), account.AccountID, err)
	}

	return &LedgerEntry{
		EntryID:      s.ids.LedgerEntryID(),
		AccountID:    account.AccountID,
		OccurredAt:   now,
		Type:         LedgerEntryTypeDebit,
		Amount:       debitAmount,
		Fee:          fee,
		Currency:     account.Currency,
		BalanceAfter: account.Balance,
		Reference:    reference,
	}, nil
}

// SettleSellFill 结算一笔卖出成交
// credit = qty*price - fee
func (s *CashSettlementService) SettleSellFill(account *TradingAccount, qty, price, fee decimal.Decimal, reference string, now time.Time) (*LedgerEntry, error) {
	creditAmount := qty.Mul(price).Sub(fee)
	if creditAmount.IsNegative() {
		return nil, fmt.Errorf("fee %s exceeds gross proceeds for account %s", fee.String(), account.AccountID)
	}

	account.Credit(creditAmount)

	return &LedgerEntry{
		EntryID:      s.ids.LedgerEntryID(),
		AccountID:    account.AccountID,
		OccurredAt:   now,
		Type:         LedgerEntryTypeCredit,
		Amount:       creditAmount,
		Fee:          fee,
		Currency:     account.Currency,
		BalanceAfter: account.Balance,
		Reference:    reference,
	}, nil
}

// SettleDeposit 结算一笔入金
func (s *CashSettlementService) SettleDeposit(account *TradingAccount, amount decimal.Decimal, reference string, now time.Time) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	account.Credit(amount)

	return &LedgerEntry{
		EntryID:      s.ids.LedgerEntryID(),
		AccountID:    account.AccountID,
		OccurredAt:   now,
		Type:         LedgerEntryTypeCredit,
		Amount:       amount,
		Fee:          decimal.Zero,
		Currency:     account.Currency,
		BalanceAfter: account.Balance,
		Reference:    reference,
		Remarks:      "deposit",
	}, nil
}
