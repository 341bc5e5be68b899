package serverutils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", JwtMiddleware, func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"user_id": ctx.Locals("user_id")})
	})
	return app
}

func TestJwtMiddlewareAcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	app := newProtectedApp()

	token := signToken(t, "test_secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _ := app.Test(req, -1)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestJwtMiddlewareRejectsMalformedUserIdClaim(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	app := newProtectedApp()

	token := signToken(t, "test_secret", jwt.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _ := app.Test(req, -1)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJwtMiddlewareFailsClosedWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	app := newProtectedApp()

	// Signed with the old fallback constant, must not verify.
	token := signToken(t, "default_secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _ := app.Test(req, -1)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestJwtMiddlewareRejectsMissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protected", nil)

	resp, _ := app.Test(req, -1)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJwtMiddlewareRejectsWrongSigningMethod(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	app := newProtectedApp()

	// alg=none token, header+claims only.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VyX2lkIjoiYWJjIn0."

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _ := app.Test(req, -1)
	assert.Equal(t, 401, resp.StatusCode)
}
