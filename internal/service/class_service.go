package service

import (
	"context"
	"fmt"
	"time"

	"elearning/internal/cache"
	apperrors "elearning/internal/errors"
	"elearning/internal/metrics"
	"elearning/internal/model"
	"elearning/internal/repository"
)

// ClassInput carries the fields of a new class.
type ClassInput struct {
	Title       string
	Description string
	Role        model.Role
	RouteID     uint
	VideoURL    string
}

// ClassUpdate carries the fields to change on a class. Nil fields are left
// untouched.
type ClassUpdate struct {
	Title       *string
	Description *string
	Role        *model.Role
	VideoURL    *string
}

// ClassService handles the classes of a course.
type ClassService interface {
	Create(ctx context.Context, in ClassInput) ([]model.Class, error)
	Edit(ctx context.Context, id uint, in ClassUpdate) ([]model.Class, error)
	Delete(ctx context.Context, id uint) ([]model.Class, error)
	ListByCourse(ctx context.Context, routeID uint) ([]model.Class, error)
}

type classService struct {
	classes  repository.ClassRepository
	courses  repository.CourseRepository
	cache    *cache.Client
	cacheTTL time.Duration
}

// NewClassService creates a new class service. cache may be nil.
func NewClassService(
	classes repository.ClassRepository,
	courses repository.CourseRepository,
	cache *cache.Client,
	cacheTTL time.Duration,
) ClassService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCatalogTTL
	}
	return &classService{
		classes:  classes,
		courses:  courses,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Create appends a class to its course and returns the course's classes.
func (s *classService) Create(ctx context.Context, in ClassInput) ([]model.Class, error) {
	if !in.Role.Valid() {
		return nil, apperrors.Validation("role must be one of ADMIN PREMIUM FREE")
	}
	if _, err := s.courses.FindByID(ctx, in.RouteID); err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find course: %w", err))
	}

	class := &model.Class{
		Title:       in.Title,
		Description: in.Description,
		Role:        in.Role,
		RouteID:     in.RouteID,
		VideoURL:    in.VideoURL,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create class: %w", err))
	}

	_ = s.cache.Delete(ctx, classesCacheKey(in.RouteID))
	return s.list(ctx, in.RouteID)
}

func (s *classService) Edit(ctx context.Context, id uint, in ClassUpdate) ([]model.Class, error) {
	class, err := s.findClass(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("role must be one of ADMIN PREMIUM FREE")
		}
		class.Role = *in.Role
	}
	if in.Title != nil {
		class.Title = *in.Title
	}
	if in.Description != nil {
		class.Description = *in.Description
	}
	if in.VideoURL != nil {
		class.VideoURL = *in.VideoURL
	}

	if err := s.classes.Update(ctx, class); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("update class: %w", err))
	}

	_ = s.cache.Delete(ctx, classesCacheKey(class.RouteID))
	return s.list(ctx, class.RouteID)
}

// Delete removes a class; later classes move up one position.
func (s *classService) Delete(ctx context.Context, id uint) ([]model.Class, error) {
	deleted, err := s.classes.Delete(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("class not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("delete class: %w", err))
	}

	_ = s.cache.Delete(ctx, classesCacheKey(deleted.RouteID))
	return s.list(ctx, deleted.RouteID)
}

// ListByCourse returns the classes of a course ordered by class number. An
// unknown course has no classes.
func (s *classService) ListByCourse(ctx context.Context, routeID uint) ([]model.Class, error) {
	key := classesCacheKey(routeID)

	var cached []model.Class
	if s.cache.GetJSON(ctx, key, &cached) {
		metrics.RecordCacheAccess(catalogCacheType, true)
		return cached, nil
	}
	metrics.RecordCacheAccess(catalogCacheType, false)

	classes, err := s.list(ctx, routeID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, classes, s.cacheTTL)
	return classes, nil
}

func (s *classService) list(ctx context.Context, routeID uint) ([]model.Class, error) {
	classes, err := s.classes.ListByCourse(ctx, routeID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list classes: %w", err))
	}
	return classes, nil
}

func (s *classService) findClass(ctx context.Context, id uint) (*model.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("class not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find class: %w", err))
	}
	return class, nil
}
