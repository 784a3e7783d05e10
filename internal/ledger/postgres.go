package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger posts balance mutations against the users table inside a
// single transaction, so a concurrent reader never observes a partial move.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount confirms a ledger account exists for the user. The users row
// created at registration carries the balance, so this is a presence check
// rather than an insert.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return ErrAccountNotFound
	}
	var one int
	if err := l.db.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

// Balance returns the current balance for the user.
func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Transfer moves amount between two users. Rows are locked in a stable order
// to avoid deadlocks between crossing transfers; the sender's balance is
// checked under the lock so it can never go negative.
func (l *PostgresLedger) Transfer(ctx context.Context, fromUserID, toUserID, kind, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	if fromUserID == toUserID {
		return TransferResult{}, fmt.Errorf("cannot transfer to self")
	}

	fromID, err := uuid.Parse(fromUserID)
	if err != nil {
		return TransferResult{}, ErrAccountNotFound
	}
	toID, err := uuid.Parse(toUserID)
	if err != nil {
		return TransferResult{}, ErrAccountNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := fromID, toID
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return TransferResult{}, ErrAccountNotFound
			}
			return TransferResult{}, err
		}
	}

	var fromBalance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, fromID).Scan(&fromBalance); err != nil {
		return TransferResult{}, err
	}
	if fromBalance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	_, err = tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, from_user_id, to_user_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`, txID, clientTxID, kind, fromID, toID, amount, time.Now().UTC())
	if isUniqueViolation(err) {
		return TransferResult{}, ErrDuplicateTransaction
	}
	if err != nil {
		return TransferResult{}, err
	}

	if err := tx.QueryRow(ctx, `UPDATE users SET balance = balance - $1 WHERE id = $2 RETURNING balance`, amount, fromID).Scan(&fromBalance); err != nil {
		return TransferResult{}, err
	}
	var toBalance int64
	if err := tx.QueryRow(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`, amount, toID).Scan(&toBalance); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}

	return TransferResult{TransactionID: txID.String(), FromBalance: fromBalance, ToBalance: toBalance}, nil
}

// Deposit credits a user from an external source (acquirer settlement or an
// admin adjustment).
func (l *PostgresLedger) Deposit(ctx context.Context, userID, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return TransferResult{}, ErrAccountNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	txID := uuid.New()
	_, err = tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, from_user_id, to_user_id, amount, created_at)
        VALUES ($1, $2, $3, NULL, $4, $5, $6)`, txID, clientTxID, KindDeposit, id, amount, time.Now().UTC())
	if isUniqueViolation(err) {
		return TransferResult{}, ErrDuplicateTransaction
	}
	if err != nil {
		return TransferResult{}, err
	}

	var balance int64
	if err := tx.QueryRow(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`, amount, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransferResult{}, ErrAccountNotFound
		}
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}

	return TransferResult{TransactionID: txID.String(), ToBalance: balance}, nil
}

// History lists postings involving the user, newest first.
func (l *PostgresLedger) History(ctx context.Context, userID string) ([]Transaction, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	rows, err := l.db.Query(ctx, `SELECT id, client_tx_id, kind, from_user_id, to_user_id, amount, created_at
        FROM transactions WHERE from_user_id = $1 OR to_user_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Transaction
	for rows.Next() {
		var (
			txID      uuid.UUID
			from      *uuid.UUID
			to        *uuid.UUID
			createdAt time.Time
			entry     Transaction
		)
		if err := rows.Scan(&txID, &entry.ClientTxID, &entry.Kind, &from, &to, &entry.Amount, &createdAt); err != nil {
			return nil, err
		}
		entry.ID = txID.String()
		if from != nil {
			entry.FromUserID = from.String()
		}
		if to != nil {
			entry.ToUserID = to.String()
		}
		entry.CreatedAt = createdAt.UTC()
		history = append(history, entry)
	}
	return history, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
