package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"onboarding-portal/config"
	"onboarding-portal/internal/delivery/http/handler"
	"onboarding-portal/internal/delivery/http/middleware"
	"onboarding-portal/internal/repository"
	"onboarding-portal/internal/service"
	"onboarding-portal/internal/usecase"
	"onboarding-portal/pkg/jwt"
	"onboarding-portal/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *jwt.JWTService) {
	t.Helper()
	log, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

	store := service.NewSlotStore(repository.NewScheduleEntryMemoryRepository(), service.NewScheduleNotifier(), log)
	allocator := usecase.NewSlotAllocator(store, log, time.UTC, time.Second, now)
	scheduleUsecase := usecase.NewScheduleUsecase(log, allocator, service.NewNoopAuditService(), nil)

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "router-test", AccessExpiry: time.Minute})
	router := NewRouter(
		handler.NewScheduleHandler(scheduleUsecase, validator.NewValidator()),
		nil,
		nil,
		middleware.NewAuthMiddleware(jwtService, nil),
		middleware.NewCORSMiddleware(),
	)
	return router.Setup(), jwtService
}

func TestRouter_ScheduleFlow(t *testing.T) {
	r, jwtService := newTestRouter(t)
	clientA, _, err := jwtService.GenerateAccessToken("userA", "", "client")
	require.NoError(t, err)
	clientB, _, err := jwtService.GenerateAccessToken("userB", "", "client")
	require.NoError(t, err)
	admin, _, err := jwtService.GenerateAccessToken("admin1", "", "admin")
	require.NoError(t, err)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/health", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/v1/schedules/me", "", "").Code)

	rec := do(http.MethodPost, "/api/v1/schedules/reserve", clientA, `{"date":"2024-03-11","slot":"10:00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(http.MethodPost, "/api/v1/schedules/reserve", clientB, `{"date":"2024-03-11","slot":"10:00"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(http.MethodPost, "/api/v1/schedules/reserve", clientB, `{"date":"2024-03-09","slot":"10:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodGet, "/api/v1/schedules/availability?date=2024-03-11", clientB, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"occupied"`)
	assert.NotContains(t, rec.Body.String(), "userA", "other clients stay anonymous")

	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/api/v1/admin/schedules", clientA, "").Code)
	rec = do(http.MethodGet, "/api/v1/admin/schedules", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "userA")

	assert.Equal(t, http.StatusOK, do(http.MethodDelete, "/api/v1/schedules/me", clientA, "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/schedules/me", clientA, "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodDelete, "/api/v1/schedules/me", clientA, "").Code)

	// Onboarding routes are absent without a database.
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/onboarding/me", clientA, "").Code)
}
