package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Register(ctx context.Context, record *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)

	TrackAttemptedLogin(ctx context.Context, record *Account) error
	TrackSuccessfulLogin(ctx context.Context, record *Account) error

	NormalizeEmail(email string) string
}

type accountsRepo struct {
	repository.Repository[*Account]
	db              *bun.DB
	normalizeEmails bool
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

type AccountsOption func(*accountsRepo)

// WithAccountsNormalizedEmails makes email matching case-insensitive by
// lowercasing on both write and lookup.
func WithAccountsNormalizedEmails(enabled bool) AccountsOption {
	return func(a *accountsRepo) {
		a.normalizeEmails = enabled
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoAccounts := &accountsRepo{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func (a *accountsRepo) NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if a.normalizeEmails {
		email = strings.ToLower(email)
	}
	return email
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	email = a.NormalizeEmail(email)

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Register(ctx context.Context, record *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, record)
}

// RegisterTx creates the account after checking email uniqueness. The unique
// index still backstops the race between check and insert.
func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	record.Email = a.NormalizeEmail(record.Email)

	if _, err := a.GetByEmailTx(ctx, tx, record.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	prepareAccountDefaults(record)

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *accountsRepo) TrackAttemptedLogin(ctx context.Context, record *Account) error {
	now := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"login_attempts" = ?,
			"login_attempt_at" = ?
		WHERE
			("acc".id = ?);
	`, record.LoginAttempts+1, now, record.ID).Exec(ctx)

	return err
}

func (a *accountsRepo) TrackSuccessfulLogin(ctx context.Context, record *Account) error {
	// NOTE: raw SQL so login_attempt_at is reset to NULL; an ORM update with
	// zero values would skip the column.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("acc".id = ?);
	`, loggedInAt, record.ID).Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
