// Package test contains end-to-end API tests. They need a reachable
// Postgres and Redis, configured the same way the dev server is
// (config.yml / environment), and run with APP_ENV=test.
package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"stride/internal/config"
	"stride/internal/server"

	"github.com/gofiber/fiber/v2"
)

const testPassword = "TestPass123!@#"

type authUser struct {
	ID    uint
	Email string
	Token string
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	if err := os.Setenv("APP_ENV", "test"); err != nil {
		t.Fatalf("set APP_ENV: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	return app
}

func signupUser(t *testing.T, app *fiber.App, prefix string) authUser {
	t.Helper()

	email := fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
	payload := map[string]string{
		"email":        email,
		"password":     testPassword,
		"display_name": "Test " + prefix,
	}

	req := jsonReq(t, http.MethodPost, "/api/auth/signup", payload)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("signup app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup expected 201 got %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}

	if body.Token == "" || body.User.ID == 0 {
		t.Fatalf("invalid signup response: %+v", body)
	}

	return authUser{ID: body.User.ID, Email: email, Token: body.Token}
}

func createPost(t *testing.T, app *fiber.App, u authUser, activity string) uint {
	t.Helper()

	req := authReq(t, http.MethodPost, "/api/posts/", u.Token, map[string]string{
		"activity": activity,
	})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create post app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post expected 201 got %d", resp.StatusCode)
	}

	var post struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		t.Fatalf("decode post response: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("post ID is empty")
	}
	return post.ID
}

func jsonReq(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	if payload == nil {
		return httptest.NewRequest(method, path, nil)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authReq(t *testing.T, method, path, token string, payload any) *http.Request {
	t.Helper()
	req := jsonReq(t, method, path, payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
