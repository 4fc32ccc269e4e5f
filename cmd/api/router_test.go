package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authUsecase "todo-backend/internal/auth/usecase"
	"todo-backend/internal/jobs"
	pushDelivery "todo-backend/internal/push/delivery"
	pushRepo "todo-backend/internal/push/repository"
	taskDelivery "todo-backend/internal/task/delivery"
	taskRepo "todo-backend/internal/task/repository"
	taskUsecase "todo-backend/internal/task/usecase"
	"todo-backend/internal/testutil"
	"todo-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/matryer/is"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	uc := taskUsecase.NewTaskUsecase(taskRepo.NewGormTaskRepository(db), taskRepo.NewGormTemplateRepository(db), nil)

	registry := jobs.NewRegistry()
	registry.Register(jobs.Dispatch, func(ctx context.Context) (any, error) {
		return map[string]int{"claimed": 1}, nil
	})

	cfg := &config.Config{
		JWTSecret:   testSecret,
		CronSecret:  "cron-secret",
		CORSOrigins: "http://localhost:5173",
	}
	h := NewHandler(
		authUsecase.NewAuthUsecase(testSecret),
		taskDelivery.NewTaskHandler(uc),
		pushDelivery.NewPushHandler(pushRepo.NewSubscriptionRepository(db), pushRepo.NewPreferenceRepository(db)),
		nil,
		registry,
		cfg,
	)
	return h.Router()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + s
}

func do(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	is := is.New(t)
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/health", "", nil)
	is.Equal(w.Code, http.StatusOK)
}

func TestTasksRequireAuth(t *testing.T) {
	is := is.New(t)
	r := newTestRouter(t)

	is.Equal(do(r, http.MethodGet, "/api/tasks", "", nil).Code, http.StatusUnauthorized)
	is.Equal(do(r, http.MethodGet, "/api/tasks", "Bearer garbage", nil).Code, http.StatusUnauthorized)
	is.Equal(do(r, http.MethodGet, "/api/tasks", "Token abc", nil).Code, http.StatusUnauthorized)
}

func TestTaskLifecycle(t *testing.T) {
	is := is.New(t)
	r := newTestRouter(t)
	alice := bearer(t, "alice")

	w := do(r, http.MethodPost, "/api/tasks", alice, map[string]any{
		"text":          "Pay rent",
		"deadline_date": "2030-01-05",
		"deadline_time": "09:00",
	})
	is.Equal(w.Code, http.StatusCreated)

	var created struct {
		ID           string  `json:"id"`
		DeadlineDate *string `json:"deadline_date"`
	}
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &created))
	is.True(created.ID != "")
	is.Equal(*created.DeadlineDate, "2030-01-05")

	// time without date is rejected
	w = do(r, http.MethodPost, "/api/tasks", alice, map[string]any{
		"text":          "Broken",
		"deadline_time": "09:00",
	})
	is.Equal(w.Code, http.StatusBadRequest)

	w = do(r, http.MethodGet, "/api/tasks", alice, nil)
	is.Equal(w.Code, http.StatusOK)
	var list struct {
		Total int `json:"total"`
	}
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &list))
	is.Equal(list.Total, 1)

	// another user cannot touch it
	bob := bearer(t, "bob")
	is.Equal(do(r, http.MethodDelete, "/api/tasks/"+created.ID, bob, nil).Code, http.StatusForbidden)

	w = do(r, http.MethodPatch, "/api/tasks/"+created.ID+"/status", alice, map[string]any{"completed": true})
	is.Equal(w.Code, http.StatusOK)

	w = do(r, http.MethodGet, "/api/tasks?completed=false", alice, nil)
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &list))
	is.Equal(list.Total, 0)

	is.Equal(do(r, http.MethodDelete, "/api/tasks/"+created.ID, alice, nil).Code, http.StatusOK)
	is.Equal(do(r, http.MethodGet, "/api/tasks/"+created.ID, alice, nil).Code, http.StatusNotFound)
}

func TestCalendarRoutesAbsentWhenDisabled(t *testing.T) {
	is := is.New(t)
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/calendar/auth-url", bearer(t, "alice"), nil)
	is.Equal(w.Code, http.StatusNotFound)
}

func TestJobsEndpoint(t *testing.T) {
	is := is.New(t)
	r := newTestRouter(t)

	is.Equal(do(r, http.MethodPost, "/api/jobs/dispatch", "", nil).Code, http.StatusUnauthorized)
	is.Equal(do(r, http.MethodPost, "/api/jobs/dispatch", "Bearer wrong", nil).Code, http.StatusUnauthorized)

	w := do(r, http.MethodPost, "/api/jobs/dispatch", "Bearer cron-secret", nil)
	is.Equal(w.Code, http.StatusOK)
	var resp struct {
		Job     string         `json:"job"`
		Summary map[string]int `json:"summary"`
	}
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &resp))
	is.Equal(resp.Job, "dispatch")
	is.Equal(resp.Summary["claimed"], 1)

	w = do(r, http.MethodPost, "/api/jobs/launch", "Bearer cron-secret", nil)
	is.Equal(w.Code, http.StatusNotFound)
}
