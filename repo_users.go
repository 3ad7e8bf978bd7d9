package gemauth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerifyUserEmailSQL flips the verified flag and burns the one time token
// in a single statement so the same token can never verify twice.
var VerifyUserEmailSQL = `UPDATE "users"
SET
	"is_email_verified" = TRUE,
	"email_verification_token" = NULL,
	"updated_at" = ?
WHERE
	"email_verification_token" = ?
RETURNING *;`

var SetResetTokenSQL = `UPDATE "users"
SET
	"reset_password_token" = ?,
	"reset_password_expires" = ?,
	"updated_at" = ?
WHERE
	"email" = ?
RETURNING *;`

// ResetUserPasswordSQL checks the token and its expiry window, replaces the
// password, and clears the token, all atomically.
var ResetUserPasswordSQL = `UPDATE "users"
SET
	"password" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires" = NULL,
	"updated_at" = ?
WHERE
	"reset_password_token" = ?
AND
	"reset_password_expires" > ?
RETURNING *;`

// UpdateUserPasswordSQL also clears any pending reset token, a password
// change invalidates outstanding reset links.
var UpdateUserPasswordSQL = `UPDATE "users"
SET
	"password" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires" = NULL,
	"updated_at" = ?
WHERE
	"id" = ?
RETURNING *;`

// Users is the persistence surface for accounts.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	VerifyEmail(ctx context.Context, token string) (*User, error)
	SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error)
	ResetPasswordByToken(ctx context.Context, token, passwordHash string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) VerifyEmail(ctx context.Context, token string) (*User, error) {
	res, err := a.Repository.Raw(ctx, VerifyUserEmailSQL, time.Now(), token)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrInvalidVerificationToken
	}
	return res[0], nil
}

func (a *users) SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error) {
	res, err := a.Repository.Raw(ctx, SetResetTokenSQL, token, expires, time.Now(), normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}
	return res[0], nil
}

func (a *users) ResetPasswordByToken(ctx context.Context, token, passwordHash string) (*User, error) {
	now := time.Now()
	res, err := a.Repository.Raw(ctx, ResetUserPasswordSQL, passwordHash, now, token, now)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrInvalidResetToken
	}
	return res[0], nil
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.Raw(ctx, UpdateUserPasswordSQL, passwordHash, time.Now(), id.String())
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users"
		SET
			"last_login" = ?,
			"updated_at" = ?
		WHERE
			"id" = ?;
	`, loggedInAt, loggedInAt, user.ID).Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.Email = normalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
