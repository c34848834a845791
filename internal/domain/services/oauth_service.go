package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

// GoogleProfile is the subset of the userinfo response we use
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// InterfaceOAuthService implements Google social login
type InterfaceOAuthService interface {
	Enabled() bool
	LoginURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, state, authCode string) (*models.User, error)
}

type OAuthService struct {
	DB          *gorm.DB
	Config      *config.Config
	Cache       InterfaceRedisService
	OAuth       *oauth2.Config
	UserInfoURL string

	// states is used when Redis is unreachable
	states sync.Map
}

func NewOAuthService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService) *OAuthService {
	return &OAuthService{
		DB:     db,
		Config: cfg,
		Cache:  cache,
		OAuth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
	}
}

// 1 Enabled reports whether client credentials are configured
func (s *OAuthService) Enabled() bool {
	return s.OAuth.ClientID != "" && s.OAuth.ClientSecret != ""
}

// 2 LoginURL stores a fresh state and returns the consent page URL
func (s *OAuthService) LoginURL(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", apperr.New(apperr.KindValidation, code.ErrOAuth, "google login is not configured")
	}
	state := uuid.NewString()
	s.saveState(ctx, state)
	return s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// 3 HandleCallback validates the state, exchanges the code and returns the
// matching user, creating one on first login
func (s *OAuthService) HandleCallback(ctx context.Context, state, authCode string) (*models.User, error) {
	if state == "" || !s.takeState(ctx, state) {
		return nil, apperr.Unauthorized(code.ErrOAuth, "invalid or expired oauth state")
	}
	if authCode == "" {
		return nil, apperr.Unauthorized(code.ErrOAuth, "missing authorization code")
	}

	token, err := s.OAuth.Exchange(ctx, authCode)
	if err != nil {
		logger.Warning("oauth code exchange failed: %v", err)
		return nil, apperr.Unauthorized(code.ErrOAuth, "code exchange failed")
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.upsertUser(ctx, profile)
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.OAuth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, apperr.Unauthorized(code.ErrOAuth, "userinfo request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unauthorized(code.ErrOAuth, fmt.Sprintf("userinfo returned %d", resp.StatusCode))
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperr.Unauthorized(code.ErrOAuth, "malformed userinfo response")
	}
	if profile.Email == "" {
		return nil, apperr.Unauthorized(code.ErrOAuth, "google account has no email")
	}
	return &profile, nil
}

func (s *OAuthService) upsertUser(ctx context.Context, p *GoogleProfile) (*models.User, error) {
	users := repositories.NewUserRepository(s.DB)
	email := strings.ToLower(p.Email)

	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsActive() {
			return nil, apperr.Forbidden(code.ErrUserInactive, "")
		}
		fields := map[string]interface{}{"last_login_at": time.Now()}
		if p.EmailVerified && !user.EmailVerified {
			fields["email_verified"] = true
		}
		if user.AvatarURL == "" && p.Picture != "" {
			fields["avatar_url"] = p.Picture
		}
		if err := users.Update(ctx, user.ID, fields); err != nil {
			return nil, err
		}
		return users.GetByID(ctx, user.ID)
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}

	now := time.Now()
	user = &models.User{
		Username:      usernameFromEmail(email),
		Email:         email,
		Role:          rules.RoleUser,
		Status:        models.UserStatusActive,
		EmailVerified: p.EmailVerified,
		FullName:      p.Name,
		AvatarURL:     p.Picture,
		Language:      languageOf(p.Locale),
		AuthProvider:  models.AuthProviderGoogle,
		LastLoginAt:   &now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("created user %d from google login", user.ID)
	return user, nil
}

func (s *OAuthService) saveState(ctx context.Context, state string) {
	if s.Cache != nil {
		err := s.Cache.SetString(ctx, fmt.Sprintf(keyOAuthState, state), "1", oauthStateTTL)
		if err == nil {
			return
		}
		logger.Warning("store oauth state in redis failed, using memory: %v", err)
	}
	s.states.Store(state, time.Now().Add(oauthStateTTL))
}

// takeState consumes a state, so each one is valid for a single callback
func (s *OAuthService) takeState(ctx context.Context, state string) bool {
	if v, ok := s.states.LoadAndDelete(state); ok {
		return time.Now().Before(v.(time.Time))
	}
	if s.Cache == nil {
		return false
	}
	_, err := s.Cache.TakeString(ctx, fmt.Sprintf(keyOAuthState, state))
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		logger.Warning("read oauth state failed: %v", err)
	}
	return err == nil
}

// usernameFromEmail derives a unique-enough username from the local part
func usernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	if len(local) > 40 {
		local = local[:40]
	}
	return local + "_" + uuid.NewString()[:8]
}

func languageOf(locale string) string {
	if len(locale) >= 2 {
		return strings.ToLower(locale[:2])
	}
	return "en"
}
