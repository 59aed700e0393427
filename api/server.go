// Package api exposes the wardrobe, recommendation, marketplace and subscription HTTP endpoints.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/config"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"github.com/raushankrgupta/wardrobe-stylist/repository"
	"github.com/raushankrgupta/wardrobe-stylist/subscription"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

// ImageStore keeps uploaded wardrobe images
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// TokenRevoker tracks logged out tokens
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Mailer sends transactional emails
type Mailer interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error
}

// Marketplace searches external product catalogs
type Marketplace interface {
	SearchProducts(ctx context.Context, q marketplace.Query) []models.MarketplaceProduct
	Trending(ctx context.Context) map[string][]models.MarketplaceProduct
}

// Deps are the collaborators a Server is built from. OAuth may be nil to disable Google login.
type Deps struct {
	Config        *config.Config
	Log           *zap.SugaredLogger
	Users         repository.UserRepository
	Wardrobe      repository.WardrobeRepository
	Images        ImageStore
	Revoker       TokenRevoker
	Mailer        Mailer
	Engine        *recommend.Engine
	Market        Marketplace
	Subscriptions *subscription.Service
	OAuth         *oauth2.Config
	// GoogleUserInfoURL overrides the Google profile endpoint
	GoogleUserInfoURL string
}

// Server routes and serves the HTTP API
type Server struct {
	Deps
	mux      *http.ServeMux
	validate *validator.Validate
	secret   []byte
}

const (
	requestTimeout    = 10 * time.Second
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// NewServer builds a Server and registers its routes
func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.GoogleUserInfoURL == "" {
		d.GoogleUserInfoURL = googleUserInfoURL
	}
	s := &Server{
		Deps:     d,
		mux:      http.NewServeMux(),
		validate: newValidator(),
		secret:   []byte(d.Config.JWTSecret),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /auth/forgot-password", s.handleForgotPassword)
	s.mux.HandleFunc("POST /auth/reset-password", s.handleResetPassword)
	s.mux.HandleFunc("GET /auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)
	s.mux.HandleFunc("GET /auth/profile", s.requireAuth(s.handleGetProfile))
	s.mux.HandleFunc("PUT /auth/profile", s.requireAuth(s.handleUpdateProfile))
	s.mux.HandleFunc("POST /auth/logout", s.requireAuth(s.handleLogout))

	s.mux.HandleFunc("GET /wardrobe", s.requireAuth(s.handleListWardrobe))
	s.mux.HandleFunc("POST /wardrobe", s.requireAuth(s.handleUploadItem))
	s.mux.HandleFunc("DELETE /wardrobe/{id}", s.requireAuth(s.handleDeleteItem))

	s.mux.HandleFunc("GET /recommendations", s.requireAuth(s.handleRecommendations))
	s.mux.HandleFunc("POST /recommendations/for-items", s.requireAuth(s.handleRecommendationsForItems))

	s.mux.HandleFunc("GET /marketplace", s.handleMarketplace)
	s.mux.HandleFunc("GET /marketplace/search", s.handleMarketplaceSearch)
	s.mux.HandleFunc("GET /marketplace/trending", s.handleTrending)
	s.mux.HandleFunc("GET /marketplace/shopping-list", s.requireAuth(s.handleShoppingList))

	s.mux.HandleFunc("GET /subscription/plans", s.handlePlans)
	s.mux.HandleFunc("GET /subscription/status", s.requireAuth(s.handleSubscriptionStatus))
	s.mux.HandleFunc("POST /subscription/subscribe", s.requireAuth(s.handleSubscribe))
	s.mux.HandleFunc("POST /subscription/cancel", s.requireAuth(s.handleCancelSubscription))
}

// Handle mounts an extra handler, e.g. the local image file server
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail writes err with the request scoped logger
func (s *Server) fail(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	utils.RespondError(w, log, err, s.Config.IsProduction())
}

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

// requireAuth validates the bearer token, rejects revoked tokens and loads the user
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.Log.With("api", "Auth")

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.fail(w, log, apierr.New(http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", apierr.ErrUnauthorized))
			return
		}

		claims, err := utils.ValidateToken(strings.TrimSpace(token), s.secret)
		if err != nil {
			s.fail(w, log, err)
			return
		}

		if s.Revoker != nil {
			revoked, err := s.Revoker.IsRevoked(r.Context(), claims.ID)
			if err == nil && revoked {
				s.fail(w, log, apierr.New(http.StatusUnauthorized, "UNAUTHORIZED", "token has been revoked", apierr.ErrUnauthorized))
				return
			}
		}

		userID, err := parseObjectID(claims.UserID)
		if err != nil {
			s.fail(w, log, apierr.New(http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", apierr.ErrUnauthorized))
			return
		}
		user, err := s.Users.GetByID(r.Context(), userID)
		if err != nil {
			if apierr.From(err).Status == http.StatusNotFound {
				err = apierr.New(http.StatusUnauthorized, "UNAUTHORIZED", "user no longer exists", apierr.ErrUnauthorized)
			}
			s.fail(w, log, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

func currentClaims(r *http.Request) *utils.Claims {
	c, _ := r.Context().Value(claimsKey).(*utils.Claims)
	return c
}

// detached returns a context for work that outlives the request
func detached(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), requestTimeout)
}
