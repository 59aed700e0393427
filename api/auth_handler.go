package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/config"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

const oauthStateCookie = "oauth_state"

// GoogleOAuthConfig builds the OAuth2 client configuration, or nil when Google login is not configured
func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		RedirectURL:  cfg.GoogleRedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

var errOAuthDisabled = apierr.New(http.StatusServiceUnavailable, "OAUTH_DISABLED", "google login is not configured", nil)

// handleGoogleLogin redirects to Google with a random state kept in a cookie
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Google Login")
	if s.OAuth == nil {
		s.fail(w, log, errOAuthDisabled)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	log.Debugw("Redirecting to Google Auth")
	http.Redirect(w, r, s.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// handleGoogleCallback exchanges the code, then finds or creates the user and issues a token
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Google Callback")
	if s.OAuth == nil {
		s.fail(w, log, errOAuthDisabled)
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.FormValue("state") {
		s.fail(w, log, apierr.BadRequest("invalid OAuth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1})

	code := r.FormValue("code")
	if code == "" {
		s.fail(w, log, apierr.BadRequest("code not found"))
		return
	}

	token, err := s.OAuth.Exchange(r.Context(), code)
	if err != nil {
		s.fail(w, log, apierr.New(http.StatusUnauthorized, "OAUTH_FAILED", "failed to exchange token", err))
		return
	}

	info, err := s.fetchGoogleUser(r, token)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	user, err := s.Users.GetByEmail(r.Context(), info.Email)
	if errors.Is(err, apierr.ErrNotFound) {
		name := info.Name
		if name == "" {
			name = strings.SplitN(info.Email, "@", 2)[0]
		}
		user = &models.User{
			Name:                     name,
			Email:                    info.Email,
			SubscriptionStatus:       models.SubscriptionFree,
			FreeRecommendationsLimit: s.Config.FreeRecommendationsLimit,
		}
		err = s.Users.Create(r.Context(), user)
		if err == nil {
			log.Infow("User registered with Google", "user_id", user.ID.Hex())
		}
	}
	if err != nil {
		s.fail(w, log, err)
		return
	}

	jwt, err := s.issueToken(user)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, AuthResponse{User: user, Token: jwt})
}

func (s *Server) fetchGoogleUser(r *http.Request, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := s.OAuth.Client(r.Context(), token).Get(s.GoogleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(http.StatusUnauthorized, "OAUTH_FAILED",
			fmt.Sprintf("google user info returned %d", resp.StatusCode), apierr.ErrUnauthorized)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode google user info: %w", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, apierr.New(http.StatusUnauthorized, "OAUTH_FAILED", "google account email is not verified", apierr.ErrUnauthorized)
	}
	return &info, nil
}
