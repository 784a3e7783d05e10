package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when the sender lacks available balance to
	// cover a requested transfer. Balances never go below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction
	// identifier already exists and the operation should be treated as
	// idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountNotFound occurs when a party to a posting does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// Transfer kinds recorded against postings.
const (
	KindP2P      = "p2p"
	KindMerchant = "merchant"
	KindDeposit  = "deposit"
)

// TransferResult captures the outcome of a posting.
type TransferResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// Transaction is one history entry for a user's statement.
type Transaction struct {
	ID         string    `json:"id"`
	ClientTxID string    `json:"client_tx_id"`
	Kind       string    `json:"kind"`
	FromUserID string    `json:"from_user_id,omitempty"`
	ToUserID   string    `json:"to_user_id"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ledger owns all balance arithmetic. Everything else in the system reads
// balances for display only.
type Ledger interface {
	// EnsureAccount opens the ledger account for a user if it does not exist
	// yet. Called once at registration; safe to call again.
	EnsureAccount(ctx context.Context, userID string) error
	Balance(ctx context.Context, userID string) (int64, error)
	Transfer(ctx context.Context, fromUserID, toUserID, kind, clientTxID string, amount int64) (TransferResult, error)
	Deposit(ctx context.Context, userID, clientTxID string, amount int64) (TransferResult, error)
	History(ctx context.Context, userID string) ([]Transaction, error)
}
