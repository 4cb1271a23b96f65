package repository

import (
	"context"

	"gorm.io/gorm"

	"elearning/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Update writes only the given columns of the user with id.
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Count(ctx context.Context) (int64, error)
	CountVerified(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ViewedClasses == nil {
		user.ViewedClasses = []uint{}
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *userRepository) CountVerified(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("verified = ?", true).Count(&n).Error
	return n, err
}

func (r *userRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Total int64
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.Role]int64, len(model.Roles))
	for _, role := range model.Roles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
