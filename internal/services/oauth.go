package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/models"
	"github.com/gatherup/backend/pkg/logger"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	ErrOAuthProviderUnknown  = errors.New("unknown oauth provider")
	ErrOAuthProviderDisabled = errors.New("oauth provider is not enabled")
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

type OAuthService struct {
	DB  *gorm.DB
	Cfg config.OAuthConfig
}

func NewOAuthService(db *gorm.DB, cfg config.OAuthConfig) *OAuthService {
	return &OAuthService{DB: db, Cfg: cfg}
}

func (s *OAuthService) ProviderConfig(provider string) (*oauth2.Config, error) {
	switch strings.ToLower(provider) {
	case "kakao":
		if !s.Cfg.Kakao.Enabled {
			return nil, ErrOAuthProviderDisabled
		}
		return &oauth2.Config{
			ClientID:     s.Cfg.Kakao.ClientID,
			ClientSecret: s.Cfg.Kakao.ClientSecret,
			RedirectURL:  s.Cfg.Kakao.RedirectURL,
			Scopes:       strings.Split(s.Cfg.Kakao.Scopes, ","),
			Endpoint:     kakaoEndpoint,
		}, nil
	default:
		return nil, ErrOAuthProviderUnknown
	}
}

// GenerateState mints the CSRF nonce carried through the provider redirect.
func (s *OAuthService) GenerateState() (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(nonceBytes), nil
}

func (s *OAuthService) AuthCodeURL(provider, state string) (string, error) {
	oauthCfg, err := s.ProviderConfig(provider)
	if err != nil {
		return "", err
	}
	return oauthCfg.AuthCodeURL(state), nil
}

func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*oauth2.Token, error) {
	oauthCfg, err := s.ProviderConfig(provider)
	if err != nil {
		return nil, err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return nil, errors.New("failed to exchange code for token")
	}
	return token, nil
}

type OAuthProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	Nickname       string
	ProfileImage   *string
}

func (s *OAuthService) FetchProfile(ctx context.Context, provider string, token *oauth2.Token) (*OAuthProfile, error) {
	switch strings.ToLower(provider) {
	case "kakao":
		return s.fetchKakaoProfile(ctx, token)
	default:
		return nil, ErrOAuthProviderUnknown
	}
}

func (s *OAuthService) fetchKakaoProfile(ctx context.Context, token *oauth2.Token) (*OAuthProfile, error) {
	oauthCfg, err := s.ProviderConfig("kakao")
	if err != nil {
		return nil, err
	}

	resp, err := oauthCfg.Client(ctx, token).Get(kakaoUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kakao api returned status %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.ID == 0 {
		return nil, errors.New("kakao profile has no user id")
	}

	profile := &OAuthProfile{
		Provider:       "kakao",
		ProviderUserID: fmt.Sprintf("%d", data.ID),
		Email:          data.KakaoAccount.Email,
		Nickname:       data.KakaoAccount.Profile.Nickname,
	}
	if profile.Nickname == "" {
		profile.Nickname = "kakao-" + profile.ProviderUserID
	}
	// Kakao only shares the email when the account_email scope is granted.
	if profile.Email == "" {
		profile.Email = "kakao-" + profile.ProviderUserID + "@oauth.local"
	}
	if data.KakaoAccount.Profile.ProfileImageURL != "" {
		img := data.KakaoAccount.Profile.ProfileImageURL
		profile.ProfileImage = &img
	}
	return profile, nil
}

// UpsertUser resolves a provider identity to a local account: an existing
// provider-linked user is reused, a credential account with the same email is
// linked, and otherwise a fresh password-less account is created.
func (s *OAuthService) UpsertUser(profile *OAuthProfile) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "provider = ? AND provider_user_id = ?",
		profile.Provider, profile.ProviderUserID).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.DB.First(&user, "email = ?", strings.ToLower(profile.Email)).Error
	if err == nil {
		user.Provider = &profile.Provider
		user.ProviderUserID = &profile.ProviderUserID
		if err := s.DB.Model(&user).Updates(map[string]interface{}{
			"provider":         profile.Provider,
			"provider_user_id": profile.ProviderUserID,
		}).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email:          strings.ToLower(profile.Email),
		PasswordHash:   "",
		Nickname:       profile.Nickname,
		ProfileImage:   profile.ProfileImage,
		Provider:       &profile.Provider,
		ProviderUserID: &profile.ProviderUserID,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Info("oauth_user_created", map[string]interface{}{
		"user_id":  user.ID,
		"provider": profile.Provider,
	})
	return &user, nil
}

// LoginWithCode completes the callback leg: code for token, token for
// profile, profile for a local account.
func (s *OAuthService) LoginWithCode(ctx context.Context, provider, code string) (*models.User, error) {
	token, err := s.Exchange(ctx, provider, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.FetchProfile(ctx, provider, token)
	if err != nil {
		return nil, err
	}

	return s.UpsertUser(profile)
}
