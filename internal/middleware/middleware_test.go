package middleware

import (
	"JoyverseEmotion/internal/entity"
	jwtPkg "JoyverseEmotion/pkg/jwt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSanitizeRequestBodyElidesLandmarks(t *testing.T) {
	got := sanitizeRequestBody([]byte(`{"landmarks":[0.1,0.2,0.3],"password":"hunter2","session_id":"s1"}`))

	if !strings.Contains(got, `"landmarks":"[3 values]"`) {
		t.Errorf("landmarks not elided: %s", got)
	}
	if !strings.Contains(got, `"password":"[SECRET]"`) {
		t.Errorf("password not masked: %s", got)
	}
	if !strings.Contains(got, `"session_id":"s1"`) {
		t.Errorf("session_id dropped: %s", got)
	}

	if got := sanitizeRequestBody([]byte("not json")); got != "[non-JSON body]" {
		t.Errorf("unexpected %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	m := New(quietLogger(), DefaultConfig())

	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 26 || resp.Header.Get(RequestIDKey) != string(body) {
		t.Errorf("expected generated ULID, got %q", body)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDKey, "client-id")
	resp, _ = app.Test(req)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "client-id" {
		t.Errorf("incoming request id not reused: %q", body)
	}
}

func TestRateLimiter(t *testing.T) {
	m := New(quietLogger(), Config{RateLimitRPS: 0.001, RateLimitBurst: 2})

	app := fiber.New()
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	want := []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}
	for i, code := range want {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != code {
			t.Errorf("request %d: status %d, want %d", i, resp.StatusCode, code)
		}
	}
}

func TestTokenMiddleware(t *testing.T) {
	t.Setenv(AccessTokenSecret, "test-secret")
	m := New(quietLogger(), DefaultConfig())

	app := fiber.New()
	app.Get("/", m.NewTokenMiddleware, func(c *fiber.Ctx) error {
		user, err := jwtPkg.GetUserLoginData(c)
		if err != nil {
			return err
		}
		return c.SendString(user.ID)
	})

	token, _, err := jwtPkg.Sign(entity.UserLoginData{ID: "t1", Email: "t@x.io", Username: "t"}, AccessTokenSecret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "t1" {
		t.Errorf("status %d body %q", resp.StatusCode, body)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/", nil))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("missing token: status %d", resp.StatusCode)
	}
}
