package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elearning/internal/auth"
	apperrors "elearning/internal/errors"
	"elearning/internal/model"
	"elearning/internal/service"
	"elearning/internal/storage"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

// withIdentity stands in for the authentication middleware.
func withIdentity(id uint) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("identity", auth.Identity{ID: id, Email: "ada@example.com"})
			return next(c)
		}
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "created",
			body: `{"email":"ada@example.com","username":"ada","password":"secret1","name":"Ada","last_name":"Lovelace"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, service.RegisterInput{
					Email: "ada@example.com", Username: "ada", Password: "secret1", Name: "Ada", LastName: "Lovelace",
				}).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing email",
			body:           `{"username":"ada","password":"secret1","name":"Ada","last_name":"Lovelace"}`,
			setupMock:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "email is required",
		},
		{
			name:           "short password",
			body:           `{"email":"ada@example.com","username":"ada","password":"123","name":"Ada","last_name":"Lovelace"}`,
			setupMock:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "password must be at least 6 characters",
		},
		{
			name:           "malformed json",
			body:           `{"email":`,
			setupMock:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request body",
		},
		{
			name: "email taken",
			body: `{"email":"ada@example.com","username":"ada","password":"secret1","name":"Ada","last_name":"Lovelace"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, mock.Anything).Return(apperrors.Conflict("email is already registered"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "email is already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)

			e := newTestEcho()
			e.POST("/ws/auth/register", NewAuthHandler(svc).Register)
			rec := doJSON(e, http.MethodPost, "/ws/auth/register", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeMessage(t, rec))
			} else {
				assert.Empty(t, rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_LoginAndVerify(t *testing.T) {
	session := &service.Session{
		Profile: service.Profile{Email: "ada@example.com", LastName: "Lovelace", ViewedClasses: []uint{}},
		Token:   "access",
		Refresh: "refresh",
	}

	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, "ada@example.com", "secret1").Return(session, nil)
	svc.On("Login", mock.Anything, "ada@example.com", "wrong").Return(nil, apperrors.NotFound("email and password do not match"))
	svc.On("Verify", mock.Anything, "ada@example.com", "ABC234").Return(session, nil)
	svc.On("Verify", mock.Anything, "ada@example.com", "ZZZ999").Return(nil, apperrors.Forbidden("no pending verification code"))

	h := NewAuthHandler(svc)
	e := newTestEcho()
	e.POST("/login", h.Login)
	e.POST("/verify", h.Verify)

	rec := doJSON(e, http.MethodPost, "/login", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access", body["data"]["token"])
	assert.Equal(t, "refresh", body["data"]["refresh"])
	assert.Equal(t, "Lovelace", body["data"]["lastName"])
	assert.NotContains(t, body["data"], "password")
	assert.NotContains(t, body["data"], "id")

	rec = doJSON(e, http.MethodPost, "/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "email and password do not match", decodeMessage(t, rec))

	rec = doJSON(e, http.MethodPost, "/verify", `{"email":"ada@example.com","verification_code":"ABC234"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/verify", `{"email":"ada@example.com","verification_code":"ZZZ999"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, "/verify", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "verification_code is required", decodeMessage(t, rec))
}

func TestAuthHandler_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        string
		expectedMsg string
	}{
		{"login with malformed email", "/login", `{"email":"ada-at-example","password":"secret1"}`, "email must be a valid email"},
		{"verify with malformed email", "/verify", `{"email":"ada","verification_code":"ABC234"}`, "email must be a valid email"},
		{"recover with short password", "/recover", `{"email":"ada@example.com","verification_code":"ABC234","password":"abc"}`, "password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			h := NewAuthHandler(svc)
			e := newTestEcho()
			e.POST("/login", h.Login)
			e.POST("/verify", h.Verify)
			e.POST("/recover", h.RecoverPassword)

			rec := doJSON(e, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.expectedMsg, decodeMessage(t, rec))
			svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "RecoverPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_InternalErrorIsHidden(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("ResendCode", mock.Anything, "ada@example.com").Return(apperrors.Internal(errors.New("dial tcp: refused")))

	e := newTestEcho()
	e.POST("/resend", NewAuthHandler(svc).ResendCode)
	rec := doJSON(e, http.MethodPost, "/resend", `{"email":"ada@example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeMessage(t, rec))
}

func TestClientHandler(t *testing.T) {
	svc := new(MockProfileService)
	svc.On("GetProfile", mock.Anything, uint(7)).Return(&service.Profile{Email: "ada@example.com"}, nil)
	svc.On("EditPassword", mock.Anything, uint(7), "secret1", "secret2").Return(nil)
	svc.On("MarkClassViewed", mock.Anything, uint(7), uint(5)).Return([]uint{3, 5}, nil)

	h := NewClientHandler(svc)
	e := newTestEcho()
	g := e.Group("/ws/client", withIdentity(7))
	g.GET("/getDataUser", h.GetDataUser)
	g.PUT("/editPassword", h.EditPassword)
	g.PUT("/markClassAsViewed", h.MarkClassAsViewed)
	e.GET("/anonymous", h.GetDataUser)

	rec := doJSON(e, http.MethodGet, "/ws/client/getDataUser", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)

	rec = doJSON(e, http.MethodPut, "/ws/client/editPassword", `{"password":"secret1","new_password":"secret2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPut, "/ws/client/markClassAsViewed", `{"classId":5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"viewedClasses":[3,5]}}`, rec.Body.String())

	rec = doJSON(e, http.MethodPut, "/ws/client/markClassAsViewed", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "classId is required", decodeMessage(t, rec))

	rec = doJSON(e, http.MethodGet, "/anonymous", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCourseHandler(t *testing.T) {
	courses := []model.Course{{ID: 1, Title: "Go", Level: model.LevelBasic, NameURL: "go"}}

	svc := new(MockCourseService)
	svc.On("Create", mock.Anything, mock.AnythingOfType("service.CourseInput")).Return(courses, nil)
	svc.On("Edit", mock.Anything, uint(1), mock.MatchedBy(func(in service.CourseUpdate) bool {
		return in.Title != nil && *in.Title == "Go 2" && in.Level == nil && in.NameURL == nil
	})).Return(courses, nil)
	svc.On("Delete", mock.Anything, uint(1)).Return([]model.Course{}, nil)
	svc.On("ReorderClasses", mock.Anything, uint(1), []service.ClassPosition{{ID: 10, ClassNumber: 2}, {ID: 11, ClassNumber: 1}}).
		Return([]model.Class{{ID: 11, ClassNumber: 1}, {ID: 10, ClassNumber: 2}}, nil)

	h := NewCourseHandler(svc)
	e := newTestEcho()
	e.POST("/createCourse", h.CreateCourse)
	e.PUT("/editCourse", h.EditCourse)
	e.DELETE("/deleteCourse", h.DeleteCourse)
	e.POST("/updateClassOrder", h.UpdateClassOrder)

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		expectedStatus int
		expectedMsg    string
	}{
		{"create", http.MethodPost, "/createCourse", `{"title":"Go","description":"d","level":"BASIC","nameUrl":"go"}`, http.StatusCreated, ""},
		{"create bad level", http.MethodPost, "/createCourse", `{"title":"Go","description":"d","level":"EXPERT","nameUrl":"go"}`, http.StatusBadRequest, "level must be one of BASIC INTERMEDIATE ADVANCED"},
		{"create missing nameUrl", http.MethodPost, "/createCourse", `{"title":"Go","description":"d","level":"BASIC"}`, http.StatusBadRequest, "nameUrl is required"},
		{"edit title only", http.MethodPut, "/editCourse", `{"id":1,"title":"Go 2"}`, http.StatusOK, ""},
		{"edit without id", http.MethodPut, "/editCourse", `{"title":"Go 2"}`, http.StatusBadRequest, "id is required"},
		{"delete by body", http.MethodDelete, "/deleteCourse", `{"id":1}`, http.StatusOK, ""},
		{"delete by query", http.MethodDelete, "/deleteCourse?id=1", "", http.StatusOK, ""},
		{"reorder", http.MethodPost, "/updateClassOrder", `{"routeId":1,"classes":[{"id":10,"classNumber":2},{"id":11,"classNumber":1}]}`, http.StatusOK, ""},
		{"reorder empty", http.MethodPost, "/updateClassOrder", `{"routeId":1,"classes":[]}`, http.StatusBadRequest, "classes must contain at least 1 items"},
		{"reorder zero number", http.MethodPost, "/updateClassOrder", `{"routeId":1,"classes":[{"id":10,"classNumber":0}]}`, http.StatusBadRequest, "classNumber is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeMessage(t, rec))
			}
		})
	}
}

func TestClassHandler(t *testing.T) {
	svc := new(MockClassService)
	svc.On("Create", mock.Anything, service.ClassInput{
		Title: "Intro", Description: "d", Role: model.RoleFree, RouteID: 1, VideoURL: "https://v/1",
	}).Return([]model.Class{{ID: 1, ClassNumber: 1, RouteID: 1}}, nil)
	svc.On("Delete", mock.Anything, uint(9)).Return(nil, apperrors.NotFound("class not found"))

	h := NewClassHandler(svc)
	e := newTestEcho()
	e.POST("/createClass", h.CreateClass)
	e.PUT("/editClass", h.EditClass)
	e.DELETE("/deleteClass", h.DeleteClass)

	rec := doJSON(e, http.MethodPost, "/createClass", `{"title":"Intro","description":"d","role":"FREE","routeId":1,"videoUrl":"https://v/1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"classNumber":1`)

	rec = doJSON(e, http.MethodPut, "/editClass", `{"id":1,"role":"GUEST"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role must be one of ADMIN PREMIUM FREE", decodeMessage(t, rec))

	rec = doJSON(e, http.MethodDelete, "/deleteClass", `{"id":9}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataHandler(t *testing.T) {
	courses := new(MockCourseService)
	classes := new(MockClassService)
	courses.On("ListCourses", mock.Anything).Return([]model.Course{}, nil)
	classes.On("ListByCourse", mock.Anything, uint(3)).Return([]model.Class{}, nil)

	h := NewDataHandler(courses, classes)
	e := newTestEcho()
	e.GET("/ws/data/getCourses", h.GetCourses)
	e.GET("/ws/data/getClasses/:routeId", h.GetClasses)

	rec := doJSON(e, http.MethodGet, "/ws/data/getCourses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/ws/data/getClasses/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/ws/data/getClasses/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartImage(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		storeErr       error
		expectedStatus int
	}{
		{"stored", "image/png", nil, http.StatusCreated},
		{"unsupported", "application/pdf", storage.ErrUnsupportedImage, http.StatusBadRequest},
		{"store failure", "image/png", errors.New("bucket unreachable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockImageStore)
			url := ""
			if tt.storeErr == nil {
				url = "http://localhost:9000/course-images/courses/abc.png"
			}
			store.On("UploadCourseImage", mock.Anything, "cover.png", mock.Anything, int64(4), tt.contentType).Return(url, tt.storeErr)

			e := newTestEcho()
			e.POST("/upload", NewUploadHandler(store).UploadCourseImage)

			body, contentType := multipartImage(t, tt.contentType, []byte("\x89PNG"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.storeErr == nil {
				assert.JSONEq(t, `{"data":{"imageUrl":"`+url+`"}}`, rec.Body.String())
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		e := newTestEcho()
		e.POST("/upload", NewUploadHandler(new(MockImageStore)).UploadCourseImage)
		rec := doJSON(e, http.MethodPost, "/upload", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "image is required", decodeMessage(t, rec))
	})
}
