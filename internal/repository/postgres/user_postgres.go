package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/repository"
)

const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.refresh_token, u.refresh_token_expires_at,
	       COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id`

type userRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool, tx: NewTxManager(pool)}
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u       model.User
		expires *time.Time
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RefreshToken, &expires, &u.Roles); err != nil {
		return model.User{}, err
	}
	if expires != nil {
		u.RefreshTokenExpiresAt = *expires
	}
	return u, nil
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx, userSelect+` WHERE lower(u.`+column+`) = lower($1) GROUP BY u.id`, value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, repository.MapPgError(err)
	}
	return u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	var out model.User
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		var id int64
		if err := exec.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			u.Username, u.Email, u.PasswordHash,
		).Scan(&id); err != nil {
			return err
		}
		if err := r.replaceRoles(ctx, exec, id, u.Roles); err != nil {
			return err
		}
		var err error
		out, err = r.getBy(ctx, "username", u.Username)
		return err
	})
	if err != nil {
		return model.User{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	var expires *time.Time
	if !u.RefreshTokenExpiresAt.IsZero() {
		expires = &u.RefreshTokenExpiresAt
	}
	var out model.User
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		tag, err := exec.Exec(ctx,
			`UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3 WHERE id = $1`,
			u.ID, u.RefreshToken, expires,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		if err := r.replaceRoles(ctx, exec, u.ID, u.Roles); err != nil {
			return err
		}
		out, err = r.getBy(ctx, "username", u.Username)
		return err
	})
	if err != nil {
		return model.User{}, repository.MapPgError(err)
	}
	return out, nil
}

// replaceRoles rewrites the user's role set; unknown roles violate the FK and map to ErrConflict.
func (r *userRepository) replaceRoles(ctx context.Context, exec q, userID int64, roles []string) error {
	if _, err := exec.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	_, err := exec.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`,
		userID, roles,
	)
	return err
}

func (r *userRepository) RoleExists(ctx context.Context, name string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *userRepository) CreateRole(ctx context.Context, name string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, r.pool).Exec(ctx, `INSERT INTO roles (name) VALUES ($1)`, name)
	return repository.MapPgError(err)
}

var _ repository.UserRepository = (*userRepository)(nil)
