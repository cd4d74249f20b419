package user

import (
	"context"
	"errors"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/user"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const PG_UNIQUE_CONSTRAINT_ERR_CODE = "23505"
const EMAIL_CONSTRAINT_NAME = "user_email_idx"

const userColumns = `id, name, email, password_hash, password_reset_token_hash, password_reset_expires_at, created_at`

// DBTX is satisfied by both a pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PgxUserRepository struct {
	db DBTX
}

func NewPgxRepository(db DBTX) *PgxUserRepository {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxUserRepository{db: db}
}

func (r *PgxUserRepository) Create(ctx context.Context, input user.CreateUserInput) (u user.User, err error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO "user" (name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		input.Name,
		string(input.Email),
		string(input.PasswordHash),
		input.CreatedAt,
	)
	u, err = scanUser(row)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == PG_UNIQUE_CONSTRAINT_ERR_CODE &&
		pgErr.ConstraintName == EMAIL_CONSTRAINT_NAME {
		return u, user.ErrEmailAlreadyExists
	}
	if err != nil {
		return u, e.NewStoreUnavailableError(err)
	}
	return u, u.Validate()
}

func (r *PgxUserRepository) GetByID(ctx context.Context, id user.ID) (u user.User, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, int64(id))
	return r.get(row)
}

func (r *PgxUserRepository) GetByEmail(ctx context.Context, email c.Email) (u user.User, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, string(email))
	return r.get(row)
}

func (r *PgxUserRepository) GetByPasswordResetTokenHash(
	ctx context.Context,
	hash user.PasswordResetTokenHash,
	at time.Time,
) (u user.User, err error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM "user"
		WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $2`,
		string(hash),
		at,
	)
	return r.get(row)
}

func (r *PgxUserRepository) SetPasswordReset(ctx context.Context, input user.SetPasswordResetInput) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user"
		SET password_reset_token_hash = $2, password_reset_expires_at = $3
		WHERE id = $1`,
		int64(input.UserID),
		string(input.PasswordReset.TokenHash),
		input.PasswordReset.ExpiresAt,
	)
	if err != nil {
		return e.NewStoreUnavailableError(err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserDoesNotExist
	}
	return nil
}

func (r *PgxUserRepository) ResetPassword(ctx context.Context, input user.ResetPasswordInput) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user"
		SET password_hash = $3, password_reset_token_hash = NULL, password_reset_expires_at = NULL
		WHERE id = $1 AND password_reset_token_hash = $2 AND password_reset_expires_at > $4`,
		int64(input.UserID),
		string(input.TokenHash),
		string(input.PasswordHash),
		input.At,
	)
	if err != nil {
		return e.NewStoreUnavailableError(err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrInvalidPasswordResetToken
	}
	return nil
}

func (r *PgxUserRepository) ClearExpiredPasswordResets(ctx context.Context, at time.Time) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE "user"
		SET password_reset_token_hash = NULL, password_reset_expires_at = NULL
		WHERE password_reset_expires_at <= $1`,
		at,
	)
	if err != nil {
		return 0, e.NewStoreUnavailableError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxUserRepository) get(row pgx.Row) (u user.User, err error) {
	u, err = scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, user.ErrUserDoesNotExist
	}
	if err != nil {
		return u, e.NewStoreUnavailableError(err)
	}
	return u, u.Validate()
}

func scanUser(row pgx.Row) (u user.User, err error) {
	var (
		id             int64
		name           string
		email          string
		passwordHash   string
		resetTokenHash pgtype.Text
		resetExpiresAt pgtype.Timestamptz
		createdAt      time.Time
	)
	err = row.Scan(&id, &name, &email, &passwordHash, &resetTokenHash, &resetExpiresAt, &createdAt)
	if err != nil {
		return u, err
	}
	return user.User{
		ID:            user.ID(id),
		Name:          name,
		Email:         c.Email(email),
		PasswordHash:  user.PasswordHash(passwordHash),
		PasswordReset: decodePasswordReset(resetTokenHash, resetExpiresAt),
		CreatedAt:     createdAt.UTC(),
	}, nil
}

func decodePasswordReset(hash pgtype.Text, expiresAt pgtype.Timestamptz) c.Optional[user.PasswordReset] {
	if hash.Status != pgtype.Present || expiresAt.Status != pgtype.Present {
		return c.None[user.PasswordReset]()
	}
	return c.Some(user.PasswordReset{
		TokenHash: user.PasswordResetTokenHash(hash.String),
		ExpiresAt: expiresAt.Time.UTC(),
	})
}
