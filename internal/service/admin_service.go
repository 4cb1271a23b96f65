package service

import (
	"context"
	"fmt"

	apperrors "elearning/internal/errors"
	"elearning/internal/model"
	"elearning/internal/repository"
)

// UserRole is the admin view of a user.
type UserRole struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UserStats summarises the user base.
type UserStats struct {
	Total    int64                `json:"total"`
	Verified int64                `json:"verified"`
	ByRole   map[model.Role]int64 `json:"byRole"`
}

// AdminService handles user administration.
type AdminService interface {
	GetUser(ctx context.Context, email string) (*UserRole, error)
	EditUserRole(ctx context.Context, email string, role model.Role) (*UserRole, error)
	UserStats(ctx context.Context) (*UserStats, error)
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

type adminService struct {
	users repository.UserRepository
}

// NewAdminService creates a new admin service.
func NewAdminService(users repository.UserRepository) AdminService {
	return &adminService{users: users}
}

func (s *adminService) GetUser(ctx context.Context, email string) (*UserRole, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &UserRole{Email: user.Email, Role: user.Role}, nil
}

func (s *adminService) EditUserRole(ctx context.Context, email string, role model.Role) (*UserRole, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("role must be one of ADMIN PREMIUM FREE")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"role": role}); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("update role: %w", err))
	}
	return &UserRole{Email: user.Email, Role: role}, nil
}

func (s *adminService) UserStats(ctx context.Context) (*UserStats, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count users: %w", err))
	}
	verified, err := s.users.CountVerified(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count verified users: %w", err))
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("count users by role: %w", err))
	}
	return &UserStats{Total: total, Verified: verified, ByRole: byRole}, nil
}

// IsAdmin reads the current role from the store, never from the token.
func (s *adminService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return false, apperrors.NotFound("user not found")
		}
		return false, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}
	return user.Role == model.RoleAdmin, nil
}

func (s *adminService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("no user with this email")
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}
	return user, nil
}
