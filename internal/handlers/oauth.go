package handlers

import (
	"errors"
	"time"

	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "oauth_state"

type OAuthHandler struct {
	OAuth *services.OAuthService
}

func NewOAuthHandler(oauth *services.OAuthService) *OAuthHandler {
	return &OAuthHandler{OAuth: oauth}
}

// Login redirects the client to the provider's consent page. The state nonce
// is pinned in a short-lived cookie and verified on the callback.
func (h *OAuthHandler) Login(c *fiber.Ctx) error {
	provider := c.Params("provider")

	state, err := h.OAuth.GenerateState()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating state")
	}

	authURL, err := h.OAuth.AuthCodeURL(provider, state)
	if err != nil {
		return oauthError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(authURL, fiber.StatusFound)
}

func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return utils.Error(c, fiber.StatusBadRequest, "state mismatch")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "authorization code is required")
	}

	user, err := h.OAuth.LoginWithCode(c.Context(), provider, code)
	if err != nil {
		return oauthError(c, err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.Info("oauth_login", map[string]interface{}{
		"user_id":  user.ID,
		"provider": provider,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	})
}

func oauthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOAuthProviderUnknown):
		return utils.Error(c, fiber.StatusNotFound, "unknown oauth provider")
	case errors.Is(err, services.ErrOAuthProviderDisabled):
		return utils.Error(c, fiber.StatusServiceUnavailable, "oauth provider is not enabled")
	default:
		return utils.Error(c, fiber.StatusBadGateway, "oauth login failed")
	}
}
