package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning/internal/auth"
	"elearning/internal/cache"
	"elearning/internal/config"
	"elearning/internal/db"
	"elearning/internal/handler"
	authmw "elearning/internal/middleware"
	"elearning/internal/model"
	"elearning/internal/notify"
	"elearning/internal/repository"
	"elearning/internal/service"
)

type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type testServer struct {
	e          *echo.Echo
	users      repository.UserRepository
	dispatcher *notify.Dispatcher
	outbox     *outbox
	redis      *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	cacheClient := cache.New(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cacheClient.Close() })

	cfg := &config.Config{
		CORS:      config.CORSConfig{AllowOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
	logger := zerolog.Nop()

	users := repository.NewUserRepository(gdb)
	courses := repository.NewCourseRepository(gdb)
	classes := repository.NewClassRepository(gdb)

	tokens := auth.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	box := &outbox{}
	dispatcher := notify.NewDispatcher(box, time.Second, logger)
	t.Cleanup(dispatcher.Wait)

	hasher := auth.NewHasher()
	authService := service.NewAuthService(users, tokens, auth.NewCodeIssuer(0, 0), hasher, dispatcher)
	adminService := service.NewAdminService(users)
	courseService := service.NewCourseService(courses, classes, cacheClient, time.Minute)
	classService := service.NewClassService(classes, courses, cacheClient, time.Minute)

	e := echo.New()
	Register(e, cfg, logger, tokens, adminService, Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Client: handler.NewClientHandler(service.NewProfileService(users, classes, hasher)),
		Admin:  handler.NewAdminHandler(adminService),
		Course: handler.NewCourseHandler(courseService),
		Class:  handler.NewClassHandler(classService),
		Data:   handler.NewDataHandler(courseService, classService),
	})

	return &testServer{e: e, users: users, dispatcher: dispatcher, outbox: box, redis: mr}
}

type session struct {
	access  string
	refresh string
}

func (s *testServer) do(method, target, body string, sess *session) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if sess != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sess.access)
		req.Header.Set(authmw.HeaderRefreshToken, sess.refresh)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) pendingCode(t *testing.T, email string) string {
	t.Helper()
	user, err := s.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user.VerificationCode)
	return *user.VerificationCode
}

// signUp registers and verifies an account, returning its tokens.
func (s *testServer) signUp(t *testing.T, email, username string) *session {
	t.Helper()
	rec := s.do(http.MethodPost, "/ws/auth/register",
		`{"email":"`+email+`","username":"`+username+`","password":"secret1","name":"Ada","last_name":"Lovelace"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	code := s.pendingCode(t, email)
	rec = s.do(http.MethodPost, "/ws/auth/verify", `{"email":"`+email+`","verification_code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Token   string `json:"token"`
			Refresh string `json:"refresh"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return &session{access: body.Data.Token, refresh: body.Data.Refresh}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/ws/auth/register",
		`{"email":"ada@example.com","username":"ada","password":"secret1","name":"Ada","last_name":"Lovelace"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(http.MethodPost, "/ws/auth/register",
		`{"email":"ada@example.com","username":"other","password":"secret1","name":"Ada","last_name":"Lovelace"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/login", `{"email":"ada@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/login", `{"email":"ada@example.com","password":"wrong1"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec2 := s.do(http.MethodPost, "/ws/auth/login", `{"email":"nobody@example.com","password":"wrong1"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec2.Code)
	assert.Equal(t, rec.Body.String(), rec2.Body.String())

	code := s.pendingCode(t, "ada@example.com")
	rec = s.do(http.MethodPost, "/ws/auth/verify", `{"email":"ada@example.com","verification_code":"WRONG1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/verify", `{"email":"ada@example.com","verification_code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodPost, "/ws/auth/verify", `{"email":"ada@example.com","verification_code":"`+code+`"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/login", `{"email":"ada@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/forgotPassword", `{"email":"ada@example.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	code = s.pendingCode(t, "ada@example.com")
	rec = s.do(http.MethodPost, "/ws/auth/recoveryPassword",
		`{"email":"ada@example.com","verification_code":"`+code+`","password":"secret2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/ws/auth/login", `{"email":"ada@example.com","password":"secret2"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.dispatcher.Wait()
	assert.Equal(t, 3, s.outbox.count())
}

func TestAuthenticationRotation(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUp(t, "ada@example.com", "ada")

	rec := s.do(http.MethodGet, "/ws/client/getDataUser", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/ws/client/getDataUser", "", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.access, rec.Header().Get(authmw.HeaderToken))
	assert.Contains(t, rec.Body.String(), `"lastName":"Lovelace"`)

	stale := &session{access: "not-a-token", refresh: sess.refresh}
	rec = s.do(http.MethodGet, "/ws/client/getDataUser", "", stale)
	require.Equal(t, http.StatusForbidden, rec.Code)
	fresh := rec.Header().Get(authmw.HeaderToken)
	require.NotEmpty(t, fresh)

	rec = s.do(http.MethodGet, "/ws/client/getDataUser", "", &session{access: fresh, refresh: sess.refresh})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/ws/client/getDataUser", "", &session{access: "bad", refresh: "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get(authmw.HeaderToken))
}

func TestCatalogueAdministration(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUp(t, "admin@example.com", "admin")

	rec := s.do(http.MethodGet, "/ws/admin/getTotalUsers", "", sess)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	user, err := s.users.FindByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, s.users.Update(context.Background(), user.ID, map[string]interface{}{"role": model.RoleAdmin}))

	rec = s.do(http.MethodGet, "/ws/admin/getTotalUsers", "", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = s.do(http.MethodPost, "/ws/admin/createCourse",
		`{"title":"Go","description":"Learn Go","level":"BASIC","nameUrl":"go"}`, sess)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var courses struct {
		Data []model.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	require.Len(t, courses.Data, 1)
	courseID := courses.Data[0].ID

	rec = s.do(http.MethodGet, "/ws/data/getCourses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.redis.Exists("catalog:courses"))

	for _, title := range []string{"One", "Two", "Three"} {
		body, _ := json.Marshal(map[string]interface{}{
			"title": title, "description": "d", "role": "FREE", "routeId": courseID, "videoUrl": "https://videos/" + title,
		})
		rec = s.do(http.MethodPost, "/ws/admin/createClass", string(body), sess)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var classes struct {
		Data []model.Class `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes.Data, 3)
	ids := []uint{classes.Data[0].ID, classes.Data[1].ID, classes.Data[2].ID}

	order, _ := json.Marshal(map[string]interface{}{
		"routeId": courseID,
		"classes": []map[string]interface{}{
			{"id": ids[0], "classNumber": 3},
			{"id": ids[1], "classNumber": 1},
			{"id": ids[2], "classNumber": 2},
		},
	})
	rec = s.do(http.MethodPost, "/ws/admin/updateClassOrder", string(order), sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodDelete, "/ws/admin/deleteClass", `{"id":`+jsonUint(ids[1])+`}`, sess)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/ws/data/getClasses/"+jsonUint(courseID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes.Data, 2)
	assert.Equal(t, ids[2], classes.Data[0].ID)
	assert.Equal(t, 1, classes.Data[0].ClassNumber)
	assert.Equal(t, ids[0], classes.Data[1].ID)
	assert.Equal(t, 2, classes.Data[1].ClassNumber)

	rec = s.do(http.MethodPut, "/ws/client/markClassAsViewed", `{"classId":`+jsonUint(ids[0])+`}`, sess)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/ws/admin/deleteCourse", `{"id":`+jsonUint(courseID)+`}`, sess)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/ws/data/getClasses/"+jsonUint(courseID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "elearning_http_requests_total")

	req := httptest.NewRequest(http.MethodOptions, "/ws/client/getDataUser", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), authmw.HeaderRefreshToken)
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.Use(rateLimiter(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}))
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
