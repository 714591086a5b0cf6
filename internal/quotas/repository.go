package quotas

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// ReplaceWindow rewrites the mirror for one window: every row whose
	// range intersects [from, to) is deleted and the given rows inserted,
	// inside one transaction. The mirror is never patched incrementally.
	ReplaceWindow(ctx context.Context, hutID int, from, to time.Time, rows []Quota) error

	// ListWindow returns mirror rows intersecting [from, to), children
	// preloaded, ordered by start date.
	ListWindow(ctx context.Context, hutID int, from, to time.Time) ([]Quota, error)

	// CountWindow returns the number of mirror rows intersecting [from, to).
	CountWindow(ctx context.Context, hutID int, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ReplaceWindow(ctx context.Context, hutID int, from, to time.Time, rows []Quota) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []Quota
		err := tx.Select("id").
			Where("hut_id = ? AND date_from < ? AND date_to > ?", hutID, to, from).
			Find(&stale).Error
		if err != nil {
			return err
		}

		if len(stale) > 0 {
			ids := make([]uint, len(stale))
			for i, q := range stale {
				ids[i] = q.ID
			}
			if err := tx.Delete(&QuotaBedCategory{}, "quota_id IN ?", ids).Error; err != nil {
				return err
			}
			if err := tx.Delete(&QuotaDescription{}, "quota_id IN ?", ids).Error; err != nil {
				return err
			}
			if err := tx.Delete(&Quota{}, "id IN ?", ids).Error; err != nil {
				return err
			}
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *repository) ListWindow(ctx context.Context, hutID int, from, to time.Time) ([]Quota, error) {
	var rows []Quota
	err := r.db.WithContext(ctx).
		Preload("BedCategories").
		Preload("Descriptions").
		Where("hut_id = ? AND date_from < ? AND date_to > ?", hutID, to, from).
		Order("date_from ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountWindow(ctx context.Context, hutID int, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Quota{}).
		Where("hut_id = ? AND date_from < ? AND date_to > ?", hutID, to, from).
		Count(&count).Error
	return count, err
}
