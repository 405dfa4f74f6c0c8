package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

// UserRepository stores users in PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &UserRepository{pool: pool}
}

// Init ensures the schema exists.
func (r *UserRepository) Init(ctx context.Context) error {
	return Init(ctx, r.pool)
}

// Create inserts a user and assigns its generated id.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	const query = `INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id`
	now := time.Now().UTC()

	var id int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, now).Scan(&id); err != nil {
			return wrapErr("insert user", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return id, nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound("scan user", err)
	}
	return &u, nil
}
