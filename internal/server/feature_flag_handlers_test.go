package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stride/internal/featureflags"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeatureFlags_EvaluatedForViewer(t *testing.T) {
	s, _ := newTestServer()
	s.featureFlags = featureflags.NewManager("home_feed_cache=on,dark_mode=off")

	app := fiber.New()
	withUser(app, 9)
	app.Get("/flags", s.GetFeatureFlags)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/flags", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "on", out.Raw["home_feed_cache"])
	assert.True(t, out.Evaluated["home_feed_cache"])
	assert.False(t, out.Evaluated["dark_mode"])
}

func TestGetFeatureFlags_NoManagerConfigured(t *testing.T) {
	s, _ := newTestServer()

	app := fiber.New()
	withUser(app, 9)
	app.Get("/flags", s.GetFeatureFlags)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/flags", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Raw)
	assert.Empty(t, out.Evaluated)
}
