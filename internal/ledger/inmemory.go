package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]int64
	transactions []Transaction
	byClientTx   map[string]TransferResult
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:   make(map[string]int64),
		byClientTx: make(map[string]TransferResult),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[userID]; !exists {
		l.balances[userID] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[userID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromUserID, toUserID, kind, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	if fromUserID == toUserID {
		return TransferResult{}, fmt.Errorf("cannot transfer to self")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := kind + ":" + clientTxID
	if res, exists := l.byClientTx[key]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[fromUserID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[toUserID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}

	if fromBalance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}

	fromBalance -= amount
	toBalance += amount
	l.balances[fromUserID] = fromBalance
	l.balances[toUserID] = toBalance

	res := TransferResult{TransactionID: uuid.New().String(), FromBalance: fromBalance, ToBalance: toBalance}
	l.byClientTx[key] = res
	l.transactions = append(l.transactions, Transaction{
		ID:         res.TransactionID,
		ClientTxID: clientTxID,
		Kind:       kind,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	})
	return res, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, userID, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := KindDeposit + ":" + clientTxID
	if res, exists := l.byClientTx[key]; exists {
		return res, ErrDuplicateTransaction
	}

	balance, ok := l.balances[userID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}

	balance += amount
	l.balances[userID] = balance

	res := TransferResult{TransactionID: uuid.New().String(), ToBalance: balance}
	l.byClientTx[key] = res
	l.transactions = append(l.transactions, Transaction{
		ID:         res.TransactionID,
		ClientTxID: clientTxID,
		Kind:       KindDeposit,
		ToUserID:   userID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	})
	return res, nil
}

func (l *inMemoryLedger) History(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var history []Transaction
	for i := len(l.transactions) - 1; i >= 0; i-- {
		tx := l.transactions[i]
		if tx.FromUserID == userID || tx.ToUserID == userID {
			history = append(history, tx)
		}
	}
	return history, nil
}
