package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingopipe/lingopipe/internal/domain"
	"github.com/lingopipe/lingopipe/internal/repository"
)

var _ repository.UserRepository = (*pgUserRepo)(nil)

const uniqueViolation = "23505"

type pgUserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a PostgreSQL-backed user store.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &pgUserRepo{pool: pool}
}

func (r *pgUserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, email, name, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query, user.UserID, user.Email, user.Name, user.PhoneNumber, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("postgres: create user: %w", err)
	}
	user.CreatedAt = now
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT user_id, email, name, phone_number, created_at FROM users WHERE user_id = $1`

	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID, &user.Email, &user.Name, &user.PhoneNumber, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT user_id, email, name, phone_number, created_at FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.UserID, &user.Email, &user.Name, &user.PhoneNumber, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *pgUserRepo) Update(ctx context.Context, userID string, update *domain.UserUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET email = COALESCE($1, email),
		    name = COALESCE($2, name),
		    phone_number = COALESCE($3, phone_number)
		WHERE user_id = $4
		RETURNING user_id, email, name, phone_number, created_at`

	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, update.Email, update.Name, update.PhoneNumber, userID).Scan(
		&user.UserID, &user.Email, &user.Name, &user.PhoneNumber, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres: update user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
