package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shortlink/models"
)

// UserRepository is the persistence contract for user accounts.
type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	DeleteWithLinks(ctx context.Context, id uint) error
}

type GormUserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *GormUserRepository {
	return &GormUserRepository{db: db, timeout: timeout}
}

func (r *GormUserRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *GormUserRepository) Insert(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// DeleteWithLinks removes the user and every link record the user owns,
// click logs included, as one transaction. Account deletion must never leave
// orphaned links behind.
func (r *GormUserRepository) DeleteWithLinks(ctx context.Context, id uint) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		sub := tx.Model(&models.Link{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("link_id IN (?)", sub).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Link{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	return translate(err)
}
