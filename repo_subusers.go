package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubUsers is the tenant-scoped sub-user repository. Scoped methods filter by
// both the record id and the owning account id so a caller can never observe
// or mutate another account's rows; misses surface as record-not-found.
type SubUsers interface {
	repository.Repository[*SubUser]

	CreateForAccount(ctx context.Context, record *SubUser) (*SubUser, error)
	CreateForAccountTx(ctx context.Context, tx bun.IDB, record *SubUser) (*SubUser, error)

	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*SubUser, error)

	GetForAccount(ctx context.Context, id, accountID uuid.UUID) (*SubUser, error)
	GetForAccountTx(ctx context.Context, tx bun.IDB, id, accountID uuid.UUID) (*SubUser, error)

	UpdateForAccount(ctx context.Context, id, accountID uuid.UUID, patch SubUserPatch) (*SubUser, error)
	DeleteForAccount(ctx context.Context, id, accountID uuid.UUID) error
}

// SubUserPatch applies partial updates: nil fields are left unchanged.
type SubUserPatch struct {
	Name       *string
	Email      *string
	Department *string
}

func (p SubUserPatch) apply(record *SubUser) {
	if p.Name != nil {
		record.Name = *p.Name
	}
	if p.Email != nil {
		record.Email = *p.Email
	}
	if p.Department != nil {
		record.Department = *p.Department
	}
}

type subUsersRepo struct {
	repository.Repository[*SubUser]
	db *bun.DB
}

var (
	_ SubUsers                        = (*subUsersRepo)(nil)
	_ repository.Repository[*SubUser] = (*subUsersRepo)(nil)
)

func NewSubUsersRepository(db *bun.DB) SubUsers {
	repo := repository.NewRepository[*SubUser](db, repository.ModelHandlers[*SubUser]{
		NewRecord: func() *SubUser { return &SubUser{} },
		GetID: func(su *SubUser) uuid.UUID {
			if su == nil {
				return uuid.Nil
			}
			return su.ID
		},
		SetID: func(su *SubUser, id uuid.UUID) {
			if su != nil {
				su.ID = id
			}
		},
	})

	return &subUsersRepo{
		Repository: repo,
		db:         db,
	}
}

func (r *subUsersRepo) CreateForAccount(ctx context.Context, record *SubUser) (*SubUser, error) {
	return r.CreateForAccountTx(ctx, r.db, record)
}

func (r *subUsersRepo) CreateForAccountTx(ctx context.Context, tx bun.IDB, record *SubUser) (*SubUser, error) {
	prepareSubUserDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *subUsersRepo) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*SubUser, error) {
	records := []*SubUser{}

	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.account_id = ?", accountID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *subUsersRepo) GetForAccount(ctx context.Context, id, accountID uuid.UUID) (*SubUser, error) {
	return r.GetForAccountTx(ctx, r.db, id, accountID)
}

func (r *subUsersRepo) GetForAccountTx(ctx context.Context, tx bun.IDB, id, accountID uuid.UUID) (*SubUser, error) {
	record := &SubUser{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subUserNotFound(id, accountID)
		}
		return nil, err
	}

	return record, nil
}

func (r *subUsersRepo) UpdateForAccount(ctx context.Context, id, accountID uuid.UUID, patch SubUserPatch) (*SubUser, error) {
	record, err := r.GetForAccount(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	patch.apply(record)
	now := time.Now()
	record.UpdatedAt = &now

	res, err := r.db.NewUpdate().
		Model(record).
		Column("name", "email", "department", "updated_at").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, subUserNotFound(id, accountID)
	}

	return record, nil
}

func (r *subUsersRepo) DeleteForAccount(ctx context.Context, id, accountID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*SubUser)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.account_id = ?", accountID).
		Exec(ctx)

	if err != nil {
		return err
	}

	// soft delete: an already-deleted row matches zero rows, so a repeated
	// delete reports not-found instead of succeeding twice
	if rows, _ := res.RowsAffected(); rows == 0 {
		return subUserNotFound(id, accountID)
	}

	return nil
}

func subUserNotFound(id, accountID uuid.UUID) error {
	return repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"id":         id.String(),
			"account_id": accountID.String(),
		})
}

func prepareSubUserDefaults(record *SubUser) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
