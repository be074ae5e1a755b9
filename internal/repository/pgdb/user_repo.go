package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// UserRepo хранит учётные записи покупателей.
type UserRepo struct {
	pool *pgxpool.Pool
	conv converter.UserConverter
}

func NewUserRepo(pool *pgxpool.Pool, conv converter.UserConverter) *UserRepo {
	return &UserRepo{pool: pool, conv: conv}
}

func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	model := u.conv.ToModel(user)
	query := `
		INSERT INTO users (name, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`

	if err := tr.QuerierFromCtx(ctx, u.pool).
		QueryRow(ctx, query, model.Name, model.Email, model.Username, model.PasswordHash).
		Scan(&model.ID, &model.CreatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrapf(e.ErrUserAlreadyExists, "%s: %s", whereami.WhereAmI(), user.Username)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(model), nil
}

func (u *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, name, email, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	var model converter.UserModel
	err := tr.QuerierFromCtx(ctx, u.pool).QueryRow(ctx, query, username).Scan(
		&model.ID, &model.Name, &model.Email, &model.Username, &model.PasswordHash, &model.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}
