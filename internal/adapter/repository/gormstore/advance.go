package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentadvance-backend/internal/domain/advance"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdvanceRepository struct{ db *gorm.DB }

func NewAdvanceRepository(db *gorm.DB) *AdvanceRepository { return &AdvanceRepository{db: db} }

// claim syncs active_property_id with the status before a write.
func claim(rows ...*advance.Advance) {
	for _, a := range rows {
		a.ActivePropertyID = a.ActiveClaim()
	}
}

// conflict maps a unique violation on active_property_id to ErrConflict.
func (r *AdvanceRepository) conflict(err error) error {
	if err == nil {
		return nil
	}
	if t, ok := r.db.Dialector.(gorm.ErrorTranslator); ok {
		err = t.Translate(err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", advance.ErrConflict, err)
	}
	return err
}

// Create inserts one row under a savepoint when called inside a transaction,
// so a conflict leaves the surrounding transaction usable.
func (r *AdvanceRepository) Create(ctx context.Context, a *advance.Advance) error {
	claim(a)
	return r.conflict(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(a).Error
	}))
}

func (r *AdvanceRepository) Save(ctx context.Context, a *advance.Advance) error {
	claim(a)
	return r.conflict(r.db.WithContext(ctx).Save(a).Error)
}

func (r *AdvanceRepository) SaveAll(ctx context.Context, rows []*advance.Advance) error {
	for _, a := range rows {
		if err := r.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *AdvanceRepository) GetByAdvanceID(ctx context.Context, advanceID string) (*advance.Advance, error) {
	var out advance.Advance
	res := r.db.WithContext(ctx).Where("advance_id = ?", advanceID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error)
	}
	return &out, nil
}

func (r *AdvanceRepository) GetByAdvanceIDForUpdate(ctx context.Context, advanceID string) (*advance.Advance, error) {
	var out advance.Advance
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("advance_id = ?", advanceID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error)
	}
	return &out, nil
}

func (r *AdvanceRepository) ListByTokenForUpdate(ctx context.Context, token string) ([]*advance.Advance, error) {
	var out []*advance.Advance
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

// ListByGroupForUpdate locks every row sharing groupKey; an ungrouped advance
// is addressed by its own advance_id.
func (r *AdvanceRepository) ListByGroupForUpdate(ctx context.Context, groupKey string) ([]*advance.Advance, error) {
	var out []*advance.Advance
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? OR (group_id IS NULL AND advance_id = ?)", groupKey, groupKey).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *AdvanceRepository) ListByToken(ctx context.Context, token string) ([]*advance.Advance, error) {
	var out []*advance.Advance
	res := r.db.WithContext(ctx).Where("token = ?", token).Order("id ASC").Find(&out)
	return out, res.Error
}

func (r *AdvanceRepository) ListByProperty(ctx context.Context, propertyID string) ([]*advance.Advance, error) {
	var out []*advance.Advance
	res := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("requested_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *AdvanceRepository) ListByPropertyManager(ctx context.Context, pmID string, includeRepaid bool) ([]*advance.Advance, error) {
	var out []*advance.Advance
	q := r.db.WithContext(ctx).Where("property_manager_id = ?", pmID)
	if !includeRepaid {
		q = q.Where("status <> ?", advance.StatusRepaid)
	}
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}

func (r *AdvanceRepository) ListByStatuses(ctx context.Context, statuses []advance.Status) ([]*advance.Advance, error) {
	var out []*advance.Advance
	res := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *AdvanceRepository) ListOverdueTokens(ctx context.Context, now time.Time) ([]string, error) {
	var tokens []string
	res := r.db.WithContext(ctx).
		Model(&advance.Advance{}).
		Where("status = ? AND expires_at < ?", advance.StatusPending, now.UTC()).
		Distinct().
		Order("token").
		Pluck("token", &tokens)
	return tokens, res.Error
}

func (r *AdvanceRepository) GetActiveByPropertyID(ctx context.Context, propertyID string) (*advance.Advance, error) {
	var out advance.Advance
	res := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID, advance.ActiveStatuses).
		Order("id DESC").
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error)
	}
	return &out, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return advance.ErrNotFound
	}
	return err
}
