package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories. It is constructed once at
// startup and injected; nothing in this package reaches for globals.
type RepositoryManager interface {
	Accounts() Accounts
	SubUsers() SubUsers
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Bootstrap(ctx context.Context) error
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	subUsers SubUsers
}

type RepositoryManagerOption func(*mngr)

// WithNormalizedEmails lowercases emails on write and lookup. Off by default
// to match the case-sensitive behavior of the original store.
func WithNormalizedEmails(enabled bool) RepositoryManagerOption {
	return func(m *mngr) {
		m.accounts = NewAccountsRepository(m.db, WithAccountsNormalizedEmails(enabled))
	}
}

func NewRepositoryManager(db *bun.DB, opts ...RepositoryManagerOption) RepositoryManager {
	m := &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
		subUsers: NewSubUsersRepository(db),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) SubUsers() SubUsers {
	return m.subUsers
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.subUsers == nil {
		return errors.New("repository subUsers should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Bootstrap creates the schema if missing. Idempotent; this is the only DDL
// the service runs, there is no migration machinery.
func (m mngr) Bootstrap(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := m.db.NewCreateTable().
		Model((*SubUser)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	// the unique column tag alone does not survive CREATE TABLE IF NOT EXISTS
	// on every dialect, so enforce email uniqueness with an explicit index
	if _, err := m.db.NewCreateIndex().
		Model((*Account)(nil)).
		Index("accounts_email_ux").
		Unique().
		IfNotExists().
		Column("email").
		Exec(ctx); err != nil {
		return err
	}

	if _, err := m.db.NewCreateIndex().
		Model((*SubUser)(nil)).
		Index("sub_users_account_id_ix").
		IfNotExists().
		Column("account_id").
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
