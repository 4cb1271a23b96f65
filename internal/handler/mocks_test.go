package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"elearning/internal/model"
	"elearning/internal/service"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, email, code string) (*service.Session, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) RecoverPassword(ctx context.Context, email, code, newPassword string) error {
	args := m.Called(ctx, email, code, newPassword)
	return args.Error(0)
}

func (m *MockAuthService) ResendCode(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockProfileService is a mock implementation of ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID uint) (*service.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *MockProfileService) EditProfile(ctx context.Context, userID uint, in service.ProfileUpdate) (*service.ProfileUpdate, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileUpdate), args.Error(1)
}

func (m *MockProfileService) EditEmail(ctx context.Context, userID uint, email, password string) (string, error) {
	args := m.Called(ctx, userID, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockProfileService) EditPassword(ctx context.Context, userID uint, password, newPassword string) error {
	args := m.Called(ctx, userID, password, newPassword)
	return args.Error(0)
}

func (m *MockProfileService) MarkClassViewed(ctx context.Context, userID, classID uint) ([]uint, error) {
	args := m.Called(ctx, userID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

// MockCourseService is a mock implementation of CourseService.
type MockCourseService struct {
	mock.Mock
}

func (m *MockCourseService) courses(args mock.Arguments) ([]model.Course, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Course), args.Error(1)
}

func (m *MockCourseService) Create(ctx context.Context, in service.CourseInput) ([]model.Course, error) {
	return m.courses(m.Called(ctx, in))
}

func (m *MockCourseService) Edit(ctx context.Context, id uint, in service.CourseUpdate) ([]model.Course, error) {
	return m.courses(m.Called(ctx, id, in))
}

func (m *MockCourseService) Delete(ctx context.Context, id uint) ([]model.Course, error) {
	return m.courses(m.Called(ctx, id))
}

func (m *MockCourseService) ReorderClasses(ctx context.Context, routeID uint, order []service.ClassPosition) ([]model.Class, error) {
	args := m.Called(ctx, routeID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *MockCourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return m.courses(m.Called(ctx))
}

// MockClassService is a mock implementation of ClassService.
type MockClassService struct {
	mock.Mock
}

func (m *MockClassService) classes(args mock.Arguments) ([]model.Class, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Class), args.Error(1)
}

func (m *MockClassService) Create(ctx context.Context, in service.ClassInput) ([]model.Class, error) {
	return m.classes(m.Called(ctx, in))
}

func (m *MockClassService) Edit(ctx context.Context, id uint, in service.ClassUpdate) ([]model.Class, error) {
	return m.classes(m.Called(ctx, id, in))
}

func (m *MockClassService) Delete(ctx context.Context, id uint) ([]model.Class, error) {
	return m.classes(m.Called(ctx, id))
}

func (m *MockClassService) ListByCourse(ctx context.Context, routeID uint) ([]model.Class, error) {
	return m.classes(m.Called(ctx, routeID))
}

// MockImageStore is a mock implementation of ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) UploadCourseImage(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, filename, reader, size, contentType)
	return args.String(0), args.Error(1)
}
