package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate occurs when a unique field (username, email, merchant id)
	// collides on create.
	ErrDuplicate = errors.New("user already exists")

	// ErrNotFound occurs when the referenced user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrNegativeBalance guards the storage-boundary invariant that a balance
	// can never go below zero. The Postgres schema enforces the same rule
	// with a CHECK constraint.
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByHandle(ctx context.Context, handle string) (User, error)
	FindByMerchantID(ctx context.Context, merchantID string) (User, error)
	UpdatePin(ctx context.Context, id, pinHash string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) error
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, password_hash, merchant_id, balance, pin_hash, role, created_at, updated_at`

// Create inserts a new user. Unique collisions map to ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, email, password_hash, merchant_id, balance, pin_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		userID, user.Username, user.Email, user.PasswordHash, user.MerchantID, user.Balance, nullable(user.PINHash), user.Role, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// FindByID fetches a user by primary identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByHandle fetches a user by username or email.
func (r *PostgresRepository) FindByHandle(ctx context.Context, handle string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, handle)
	return scanUser(row)
}

// FindByMerchantID fetches a user by merchant identifier.
func (r *PostgresRepository) FindByMerchantID(ctx context.Context, merchantID string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE merchant_id = $1`, merchantID)
	return scanUser(row)
}

// UpdatePin stores a new PIN hash. Only the pin_hash column is written so
// untouched credentials are never disturbed.
func (r *PostgresRepository) UpdatePin(ctx context.Context, id, pinHash string) error {
	return r.updateColumn(ctx, id, `UPDATE users SET pin_hash = $1, updated_at = $2 WHERE id = $3`, pinHash)
}

// UpdatePassword stores a new password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumn(ctx, id, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash)
}

func (r *PostgresRepository) updateColumn(ctx context.Context, id, query, value string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, query, value, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every user ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Delete removes a user record permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		pinHash   *string
		createdAt time.Time
		updatedAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &user.MerchantID, &user.Balance, &pinHash, &user.Role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	if pinHash != nil {
		user.PINHash = *pinHash
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
