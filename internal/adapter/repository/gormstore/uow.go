package gormstore

import (
	"context"

	"rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Advances: &AdvanceRepository{db: tx},
		Reviews:  &ReviewRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

// WithinGroupTx locks the target advance, then every member of its group, and
// passes the group with the target first.
func (u *GormUoW) WithinGroupTx(ctx context.Context, advanceID string, fn func(r uow.Repos, group []*advance.Advance) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		target, err := r.Advances.GetByAdvanceIDForUpdate(ctx, advanceID)
		if err != nil {
			return err
		}
		group := []*advance.Advance{target}
		if target.GroupID != nil {
			members, err := r.Advances.ListByGroupForUpdate(ctx, target.GroupKey())
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.AdvanceID != target.AdvanceID {
					group = append(group, m)
				}
			}
		}
		return fn(r, group)
	})
}

func (u *GormUoW) WithinTokenTx(ctx context.Context, token string, fn func(r uow.Repos, group []*advance.Advance) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		group, err := r.Advances.ListByTokenForUpdate(ctx, token)
		if err != nil {
			return err
		}
		if len(group) == 0 {
			return advance.ErrNotFound
		}
		return fn(r, group)
	})
}
