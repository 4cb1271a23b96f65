package service

import (
	"context"
	"errors"
	"fmt"

	"elearning/internal/auth"
	apperrors "elearning/internal/errors"
	"elearning/internal/model"
	"elearning/internal/repository"
)

// Profile is the public view of a user. It never carries the password,
// the internal id or verification state.
type Profile struct {
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	LastName      string     `json:"lastName"`
	Role          model.Role `json:"role"`
	Verified      bool       `json:"verified"`
	ViewedClasses []uint     `json:"viewedClasses"`
}

// NewProfile builds the public view of user.
func NewProfile(user *model.User) Profile {
	viewed := make([]uint, len(user.ViewedClasses))
	copy(viewed, user.ViewedClasses)
	return Profile{
		Email:         user.Email,
		Username:      user.Username,
		Name:          user.Name,
		LastName:      user.LastName,
		Role:          user.Role,
		Verified:      user.Verified,
		ViewedClasses: viewed,
	}
}

// ProfileUpdate carries the editable identity fields of a user.
type ProfileUpdate struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Username string `json:"username"`
}

// ProfileService serves the authenticated user's own account.
type ProfileService interface {
	GetProfile(ctx context.Context, userID uint) (*Profile, error)
	EditProfile(ctx context.Context, userID uint, in ProfileUpdate) (*ProfileUpdate, error)
	EditEmail(ctx context.Context, userID uint, email, password string) (string, error)
	EditPassword(ctx context.Context, userID uint, password, newPassword string) error
	MarkClassViewed(ctx context.Context, userID, classID uint) ([]uint, error)
}

type profileService struct {
	users   repository.UserRepository
	classes repository.ClassRepository
	hasher  PasswordHasher
}

// NewProfileService creates a new profile service.
func NewProfileService(users repository.UserRepository, classes repository.ClassRepository, hasher PasswordHasher) ProfileService {
	return &profileService{
		users:   users,
		classes: classes,
		hasher:  hasher,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := NewProfile(user)
	return &profile, nil
}

func (s *profileService) EditProfile(ctx context.Context, userID uint, in ProfileUpdate) (*ProfileUpdate, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"name":      in.Name,
		"last_name": in.LastName,
	}

	if in.Username != user.Username {
		if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
			return nil, apperrors.Conflict("username is not available")
		} else if !isNotFound(err) {
			return nil, apperrors.Internal(fmt.Errorf("check username: %w", err))
		}
		fields["username"] = in.Username
	} else if in.Name == user.Name && in.LastName == user.LastName {
		return nil, apperrors.Validation("no changes to apply")
	}

	if err := s.users.Update(ctx, userID, fields); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("username is not available")
		}
		return nil, apperrors.Internal(fmt.Errorf("update profile: %w", err))
	}
	return &in, nil
}

func (s *profileService) EditEmail(ctx context.Context, userID uint, email, password string) (string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := s.checkPassword(user, password); err != nil {
		return "", err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", apperrors.Conflict("email is not available")
	} else if !isNotFound(err) {
		return "", apperrors.Internal(fmt.Errorf("check email: %w", err))
	}

	if err := s.users.Update(ctx, userID, map[string]interface{}{"email": email}); err != nil {
		if isDuplicate(err) {
			return "", apperrors.Conflict("email is not available")
		}
		return "", apperrors.Internal(fmt.Errorf("update email: %w", err))
	}
	return email, nil
}

func (s *profileService) EditPassword(ctx context.Context, userID uint, password, newPassword string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, password); err != nil {
		return err
	}
	if password == newPassword {
		return apperrors.Validation("new password must be different from the current one")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"password": hash}); err != nil {
		return apperrors.Internal(fmt.Errorf("update password: %w", err))
	}
	return nil
}

func (s *profileService) MarkClassViewed(ctx context.Context, userID, classID uint) ([]uint, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("class not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find class: %w", err))
	}

	if user.HasViewed(classID) {
		return NewProfile(user).ViewedClasses, nil
	}

	viewed := append(user.ViewedClasses, classID)
	if err := s.users.Update(ctx, userID, map[string]interface{}{"viewed_classes": viewed}); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("update viewed classes: %w", err))
	}
	user.ViewedClasses = viewed
	return NewProfile(user).ViewedClasses, nil
}

func (s *profileService) findUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}
	return user, nil
}

func (s *profileService) checkPassword(user *model.User, password string) error {
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperrors.Validation("password is incorrect")
		}
		return apperrors.Internal(err)
	}
	return nil
}
