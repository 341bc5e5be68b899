package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ai-companion-be/internal/bootstrap"
	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/server"
	"ai-companion-be/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

// mintToken issues the same HS256 token shape the auth gateway produces.
func mintToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		t.Fatal("JWT_SECRET must be set for integration tests")
	}

	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

func TestSourceAndContextEndpoints(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}
	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "integration_secret")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	userId := uuid.New()
	token := mintToken(t, userId)

	var createdTaskId uuid.UUID

	defer func() {
		db.Unscoped().Where("user_id = ?", userId).Delete(&model.Task{})
		db.Unscoped().Where("user_id = ?", userId).Delete(&model.SourceEmbedding{})
		db.Where("user_id = ?", userId).Delete(&model.UserContext{})
	}()

	t.Run("Create task", func(t *testing.T) {
		reqBody := dto.CreateTaskRequest{
			Title:  "Finish the quarterly report",
			Status: "pending",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/task/v1", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.ApiResponse[dto.TaskResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Equal(t, "Finish the quarterly report", result.Data.Title)
		assert.Equal(t, "pending", result.Data.Status)
		createdTaskId = result.Data.Id
	})

	t.Run("List tasks returns created task", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/task/v1", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.ApiResponse[[]dto.TaskResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Len(t, result.Data, 1)
	})

	t.Run("Show task from another user is not found", func(t *testing.T) {
		otherToken := mintToken(t, uuid.New())

		req := httptest.NewRequest("GET", "/api/task/v1/"+createdTaskId.String(), nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("Update user context", func(t *testing.T) {
		reqBody := dto.UpdateUserContextRequest{
			Objectives: []string{"Ship the Q3 release"},
			FocusAreas: []string{"backend"},
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("PUT", "/api/context/v1", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.ApiResponse[dto.UserContextResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Equal(t, []string{"Ship the Q3 release"}, result.Data.Objectives)
	})

	t.Run("Show user context after update", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/context/v1", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.ApiResponse[dto.UserContextResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.Equal(t, []string{"backend"}, result.Data.FocusAreas)
	})

	t.Run("List sessions starts empty", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/chat/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.ApiResponse[[]dto.ChatSessionResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Empty(t, result.Data)
	})

	t.Run("Missing token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/task/v1", nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)
	})
}
