package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountdomain "jobtrack-backend/internal/account/domain"
	"jobtrack-backend/internal/application/domain"
	ingestusecase "jobtrack-backend/internal/ingest/usecase"
	"jobtrack-backend/internal/notification"
	"jobtrack-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noApplications struct{}

func (noApplications) ListApplications(context.Context, string, int, int) ([]domain.JobApplication, int64, error) {
	return nil, 0, nil
}

func (noApplications) GetApplication(context.Context, string, string) (*domain.JobApplication, error) {
	return nil, nil
}

func (noApplications) ListEvents(context.Context, string, string) ([]domain.ApplicationEvent, error) {
	return nil, nil
}

type noTokens struct{}

func (noTokens) SaveToken(context.Context, string, string, string) error { return nil }

func (noTokens) GetTokensByUserID(context.Context, string) ([]accountdomain.DeviceToken, error) {
	return nil, nil
}

func (noTokens) DeleteToken(context.Context, string) error { return nil }

type countingQueue struct{ n int }

func (q *countingQueue) Enqueue(ingestusecase.PushJob) bool {
	q.n++
	return true
}

func TestRoutes(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret"}
	q := &countingQueue{}
	r := NewHandler(cfg, noApplications{}, noTokens{}, notification.NewPushHandler(q)).Router()

	do := func(method, path, auth string, body []byte) int {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health", "", nil))
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/applications", "", nil))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/applications", "Bearer "+token, nil))
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/applications/missing", "Bearer "+token, nil))

	data := base64.StdEncoding.EncodeToString([]byte(`{"emailAddress":"jane@example.com","historyId":5}`))
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/pubsub/gmail/push", "", []byte(`{"message":{"data":"`+data+`"}}`)))
	assert.Equal(t, 1, q.n)

	assert.Equal(t, http.StatusNoContent, do(http.MethodOptions, "/api/applications", "", nil))
}
