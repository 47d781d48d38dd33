package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestOAuthLoginRedirect(t *testing.T) {
	env := setupTestEnv(t)

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/auth/oauth/kakao/login", nil, nil)
	assertStatus(t, resp, fiber.StatusFound)

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "https://kauth.kakao.com/oauth/authorize") {
		t.Fatalf("expected redirect to kakao, got %q", location)
	}
	if !strings.Contains(location, "client_id=test-client") {
		t.Fatalf("expected configured client id in %q", location)
	}

	var stateCookie string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "oauth_state" {
			stateCookie = cookie.Value
		}
	}
	if stateCookie == "" {
		t.Fatal("expected a state cookie on the redirect")
	}
	if !strings.Contains(location, "state=") {
		t.Fatalf("expected state parameter in %q", location)
	}
}

func TestOAuthCallbackValidation(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("state mismatch rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet,
			"/api/auth/oauth/kakao/callback?state=forged&code=abc", nil,
			map[string]string{"Cookie": "oauth_state=genuine"})
		assertStatus(t, resp, fiber.StatusBadRequest)
		assertEnvelopeError(t, decodeJSONMap(t, resp), "state mismatch")
	})

	t.Run("missing code rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet,
			"/api/auth/oauth/kakao/callback?state=genuine", nil,
			map[string]string{"Cookie": "oauth_state=genuine"})
		assertStatus(t, resp, fiber.StatusBadRequest)
	})

	t.Run("unknown provider is 404", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet,
			"/api/auth/oauth/naver/login", nil, nil)
		assertStatus(t, resp, fiber.StatusNotFound)
	})
}
