package gemauth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetProfileVerificationStatusSQL touches only the review columns so an
// admin decision can never clobber the rest of the profile.
var SetProfileVerificationStatusSQL = `UPDATE "professional_profiles"
SET
	"verification_status" = ?,
	"updated_at" = ?
WHERE
	"id" = ?
RETURNING *;`

// Professionals is the persistence surface for professional profiles.
type Professionals interface {
	repository.Repository[*ProfessionalProfile]

	GetByUserID(ctx context.Context, userID uuid.UUID) (*ProfessionalProfile, error)
	ListByStatus(ctx context.Context, status VerificationStatus) ([]*ProfessionalProfile, error)
	CreateForUserTx(ctx context.Context, tx bun.IDB, profile *ProfessionalProfile) (*ProfessionalProfile, error)
	SetVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus) (*ProfessionalProfile, error)
}

type professionals struct {
	repository.Repository[*ProfessionalProfile]
	db *bun.DB
}

var _ Professionals = (*professionals)(nil)

func NewProfessionalsRepository(db *bun.DB) Professionals {
	repo := repository.NewRepository[*ProfessionalProfile](db, repository.ModelHandlers[*ProfessionalProfile]{
		NewRecord: func() *ProfessionalProfile { return &ProfessionalProfile{} },
		GetID: func(p *ProfessionalProfile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *ProfessionalProfile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &professionals{
		Repository: repo,
		db:         db,
	}
}

func (a *professionals) GetByUserID(ctx context.Context, userID uuid.UUID) (*ProfessionalProfile, error) {
	record := &ProfessionalProfile{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// ListByStatus returns profiles in one review state, oldest first so the
// review queue is fair.
func (a *professionals) ListByStatus(ctx context.Context, status VerificationStatus) ([]*ProfessionalProfile, error) {
	var records []*ProfessionalProfile
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.verification_status = ?", status).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateForUserTx inserts a profile inside the caller's transaction, used
// by professional registration so user and profile commit or roll back
// together.
func (a *professionals) CreateForUserTx(ctx context.Context, tx bun.IDB, profile *ProfessionalProfile) (*ProfessionalProfile, error) {
	prepareProfileDefaults(profile)
	return a.Repository.CreateTx(ctx, tx, profile)
}

func (a *professionals) SetVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus) (*ProfessionalProfile, error) {
	res, err := a.Repository.Raw(ctx, SetProfileVerificationStatusSQL, status, time.Now(), id.String())
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return res[0], nil
}

func prepareProfileDefaults(record *ProfessionalProfile) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.VerificationStatus == "" {
		record.VerificationStatus = VerificationPending
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
}
