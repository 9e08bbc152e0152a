package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"shortlink/apperrors"
	"shortlink/models"
)

// LinkRepository is the persistence contract for link records and their
// append-only click log. Implementations must make AppendClick a single
// indivisible operation: concurrent appends against the same short id may
// never overwrite each other.
type LinkRepository interface {
	Insert(ctx context.Context, link *models.Link) error
	FindByShortID(ctx context.Context, shortID string) (*models.Link, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*models.Link, error)
	UpdateFields(ctx context.Context, id, ownerID uint, fields map[string]any) error
	AppendClick(ctx context.Context, shortID string, click *models.Click) (*models.Link, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint) error
	DeleteByOwner(ctx context.Context, ownerID uint) error
	FindByOwner(ctx context.Context, ownerID uint) ([]models.Link, error)
	SearchByOwnerAndRemark(ctx context.Context, ownerID uint, query string) ([]models.Link, error)
	ClicksByLinkID(ctx context.Context, linkID uint) ([]models.Click, error)
}

// GormLinkRepository implements LinkRepository on a gorm handle. Every call
// runs under a bounded timeout; a deadline or driver failure surfaces as
// ErrStoreUnavailable, distinct from ErrNotFound.
type GormLinkRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewLinkRepository(db *gorm.DB, timeout time.Duration) *GormLinkRepository {
	return &GormLinkRepository{db: db, timeout: timeout}
}

func (r *GormLinkRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// translate maps gorm and driver errors onto the application taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicateKey
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
}

func (r *GormLinkRepository) Insert(ctx context.Context, link *models.Link) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(link).Error)
}

func (r *GormLinkRepository) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var link models.Link
	if err := r.db.WithContext(ctx).Where("short_id = ?", shortID).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *GormLinkRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*models.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var link models.Link
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

// UpdateFields applies the given column values to the link owned by ownerID.
// Only destination, remark and expiration are legal keys; a nil value for
// expires_at clears the expiration.
func (r *GormLinkRepository) UpdateFields(ctx context.Context, id, ownerID uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AppendClick inserts one click row for the link and returns the record with
// its click log. The insert is the sole mutation, so N concurrent appends
// yield exactly N rows.
func (r *GormLinkRepository) AppendClick(ctx context.Context, shortID string, click *models.Click) (*models.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var link models.Link
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("short_id = ?", shortID).First(&link).Error; err != nil {
			return err
		}
		click.LinkID = link.ID
		if err := tx.Create(click).Error; err != nil {
			return err
		}
		return tx.Preload("Clicks").First(&link, link.ID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *GormLinkRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.Link
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&link).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		return tx.Delete(&link).Error
	})
	return translate(err)
}

// DeleteByOwner removes every link of the owner together with the click logs,
// in one transaction. Used by the account-deletion cascade.
func (r *GormLinkRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&models.Link{}).Select("id").Where("user_id = ?", ownerID)
		if err := tx.Where("link_id IN (?)", sub).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", ownerID).Delete(&models.Link{}).Error
	})
	return translate(err)
}

func (r *GormLinkRepository) FindByOwner(ctx context.Context, ownerID uint) ([]models.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	links := []models.Link{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&links).Error
	if err != nil {
		return nil, translate(err)
	}
	return links, nil
}

// SearchByOwnerAndRemark filters the owner's links by case-insensitive
// substring match on remark. LOWER/LIKE keeps the query portable between
// Postgres and the sqlite test database.
func (r *GormLinkRepository) SearchByOwnerAndRemark(ctx context.Context, ownerID uint, query string) ([]models.Link, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	links := []models.Link{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(remark) LIKE ?", ownerID, "%"+strings.ToLower(query)+"%").
		Order("created_at desc").
		Find(&links).Error
	if err != nil {
		return nil, translate(err)
	}
	return links, nil
}

func (r *GormLinkRepository) ClicksByLinkID(ctx context.Context, linkID uint) ([]models.Click, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	clicks := []models.Click{}
	err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("id asc").
		Find(&clicks).Error
	if err != nil {
		return nil, translate(err)
	}
	return clicks, nil
}
