package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elearning/internal/cache"
	apperrors "elearning/internal/errors"
	"elearning/internal/metrics"
	"elearning/internal/model"
	"elearning/internal/repository"
)

const (
	defaultCatalogTTL = 5 * time.Minute
	coursesCacheKey   = "catalog:courses"
	catalogCacheType  = "catalog"
)

func classesCacheKey(routeID uint) string {
	return fmt.Sprintf("catalog:classes:%d", routeID)
}

// CourseInput carries the fields of a new course.
type CourseInput struct {
	Title       string
	Description string
	Level       model.Level
	NameURL     string
	ImageURL    string
}

// CourseUpdate carries the fields to change on a course. Nil fields are
// left untouched.
type CourseUpdate struct {
	Title       *string
	Description *string
	Level       *model.Level
	NameURL     *string
	ImageURL    *string
}

// ClassPosition assigns a class its new number.
type ClassPosition struct {
	ID          uint `json:"id"`
	ClassNumber int  `json:"classNumber"`
}

// CourseService handles the course catalogue.
type CourseService interface {
	Create(ctx context.Context, in CourseInput) ([]model.Course, error)
	Edit(ctx context.Context, id uint, in CourseUpdate) ([]model.Course, error)
	Delete(ctx context.Context, id uint) ([]model.Course, error)
	ReorderClasses(ctx context.Context, routeID uint, order []ClassPosition) ([]model.Class, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
}

type courseService struct {
	courses  repository.CourseRepository
	classes  repository.ClassRepository
	cache    *cache.Client
	cacheTTL time.Duration
}

// NewCourseService creates a new course service. cache may be nil.
func NewCourseService(
	courses repository.CourseRepository,
	classes repository.ClassRepository,
	cache *cache.Client,
	cacheTTL time.Duration,
) CourseService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCatalogTTL
	}
	return &courseService{
		courses:  courses,
		classes:  classes,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func validLevel(level model.Level) bool {
	switch level {
	case model.LevelBasic, model.LevelIntermediate, model.LevelAdvanced:
		return true
	}
	return false
}

func (s *courseService) Create(ctx context.Context, in CourseInput) ([]model.Course, error) {
	if !validLevel(in.Level) {
		return nil, apperrors.Validation("level must be one of BASIC INTERMEDIATE ADVANCED")
	}
	if err := s.ensureNameURLFree(ctx, in.NameURL, 0); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:       in.Title,
		Description: in.Description,
		Level:       in.Level,
		NameURL:     in.NameURL,
		ImageURL:    in.ImageURL,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("nameUrl is already in use")
		}
		return nil, apperrors.Internal(fmt.Errorf("create course: %w", err))
	}

	_ = s.cache.Delete(ctx, coursesCacheKey)
	return s.list(ctx)
}

func (s *courseService) Edit(ctx context.Context, id uint, in CourseUpdate) ([]model.Course, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Level != nil {
		if !validLevel(*in.Level) {
			return nil, apperrors.Validation("level must be one of BASIC INTERMEDIATE ADVANCED")
		}
		course.Level = *in.Level
	}
	if in.NameURL != nil && *in.NameURL != course.NameURL {
		if err := s.ensureNameURLFree(ctx, *in.NameURL, course.ID); err != nil {
			return nil, err
		}
		course.NameURL = *in.NameURL
	}
	if in.Title != nil {
		course.Title = *in.Title
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.ImageURL != nil {
		course.ImageURL = *in.ImageURL
	}

	if err := s.courses.Update(ctx, course); err != nil {
		if isDuplicate(err) {
			return nil, apperrors.Conflict("nameUrl is already in use")
		}
		return nil, apperrors.Internal(fmt.Errorf("update course: %w", err))
	}

	_ = s.cache.Delete(ctx, coursesCacheKey)
	return s.list(ctx)
}

func (s *courseService) Delete(ctx context.Context, id uint) ([]model.Course, error) {
	if err := s.courses.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("delete course: %w", err))
	}

	_ = s.cache.Delete(ctx, coursesCacheKey, classesCacheKey(id))
	return s.list(ctx)
}

// ReorderClasses renumbers every class of a course in one step. order must
// name each class exactly once and use each number from 1 to N once.
func (s *courseService) ReorderClasses(ctx context.Context, routeID uint, order []ClassPosition) ([]model.Class, error) {
	if _, err := s.findCourse(ctx, routeID); err != nil {
		return nil, err
	}

	current, err := s.classes.ListByCourse(ctx, routeID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list classes: %w", err))
	}

	positions, err := validateOrder(current, order)
	if err != nil {
		return nil, err
	}

	if err := s.classes.Reorder(ctx, routeID, positions); err != nil {
		if errors.Is(err, repository.ErrOrderMismatch) {
			return nil, apperrors.Validation("class order must include every class of the course exactly once")
		}
		return nil, apperrors.Internal(fmt.Errorf("reorder classes: %w", err))
	}

	_ = s.cache.Delete(ctx, classesCacheKey(routeID))

	classes, err := s.classes.ListByCourse(ctx, routeID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list classes: %w", err))
	}
	return classes, nil
}

func validateOrder(current []model.Class, order []ClassPosition) (map[uint]int, error) {
	n := len(current)
	if len(order) != n {
		return nil, apperrors.Validation("class order must include every class of the course exactly once")
	}

	known := make(map[uint]struct{}, n)
	for _, c := range current {
		known[c.ID] = struct{}{}
	}

	positions := make(map[uint]int, n)
	used := make(map[int]struct{}, n)
	for _, item := range order {
		if _, ok := known[item.ID]; !ok {
			return nil, apperrors.Validation("class order must include every class of the course exactly once")
		}
		if _, dup := positions[item.ID]; dup {
			return nil, apperrors.Validation("class order must include every class of the course exactly once")
		}
		if item.ClassNumber < 1 || item.ClassNumber > n {
			return nil, apperrors.Validation(fmt.Sprintf("class numbers must run from 1 to %d", n))
		}
		if _, dup := used[item.ClassNumber]; dup {
			return nil, apperrors.Validation(fmt.Sprintf("class number %d is used more than once", item.ClassNumber))
		}
		positions[item.ID] = item.ClassNumber
		used[item.ClassNumber] = struct{}{}
	}
	return positions, nil
}

// ListCourses returns every course ordered by id.
func (s *courseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	var cached []model.Course
	if s.cache.GetJSON(ctx, coursesCacheKey, &cached) {
		metrics.RecordCacheAccess(catalogCacheType, true)
		return cached, nil
	}
	metrics.RecordCacheAccess(catalogCacheType, false)

	courses, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, coursesCacheKey, courses, s.cacheTTL)
	return courses, nil
}

func (s *courseService) list(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list courses: %w", err))
	}
	return courses, nil
}

func (s *courseService) findCourse(ctx context.Context, id uint) (*model.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find course: %w", err))
	}
	return course, nil
}

// ensureNameURLFree fails when nameURL belongs to a course other than self.
func (s *courseService) ensureNameURLFree(ctx context.Context, nameURL string, self uint) error {
	existing, err := s.courses.FindByNameURL(ctx, nameURL)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperrors.Internal(fmt.Errorf("check nameUrl: %w", err))
	}
	if existing.ID != self {
		return apperrors.Conflict("nameUrl is already in use")
	}
	return nil
}
