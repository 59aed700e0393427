package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

const (
	otpLength = 6
	otpTTL    = 15 * time.Minute
)

// SignupRequest represents the payload for user registration
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents the payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the payload for forgot password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the payload for resetting password
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// AuthResponse is returned by every endpoint that issues a token
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

var errBadCredentials = apierr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", apierr.ErrUnauthorized)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Signup")

	var req SignupRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, log, fmt.Errorf("hash password: %w", err))
		return
	}

	user := &models.User{
		Name:                     strings.TrimSpace(req.Name),
		Email:                    req.Email,
		Password:                 string(hashedPassword),
		SubscriptionStatus:       models.SubscriptionFree,
		FreeRecommendationsLimit: s.Config.FreeRecommendationsLimit,
	}
	if err := s.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, apierr.ErrAlreadyExists) {
			err = apierr.New(http.StatusConflict, "EMAIL_TAKEN", "user with this email already exists", err)
		}
		s.fail(w, log, err)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	s.sendEmail(r, user, "Welcome to Fitly",
		"Your wardrobe is ready. Upload a few items to get your first outfit recommendations.")

	log.Infow("User registered", "user_id", user.ID.Hex())
	utils.RespondJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Login")

	var req LoginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	user, err := s.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apierr.ErrNotFound) {
			err = errBadCredentials
		}
		s.fail(w, log, err)
		return
	}

	// accounts created through Google have no password
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		s.fail(w, log, errBadCredentials)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Infow("User logged in", "user_id", user.ID.Hex())
	utils.RespondJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Logout")

	claims := currentClaims(r)
	if s.Revoker != nil && claims != nil && claims.ExpiresAt != nil {
		if err := s.Revoker.Revoke(r.Context(), claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.fail(w, log, fmt.Errorf("revoke token: %w", err))
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Forgot Password")

	var req ForgotPasswordRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	const message = "If the email is registered, a reset code has been sent"

	user, err := s.Users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, apierr.ErrNotFound) {
		// same answer for unknown addresses
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": message})
		return
	}
	if err != nil {
		s.fail(w, log, err)
		return
	}

	otp, err := utils.GenerateOTP(otpLength)
	if err != nil {
		s.fail(w, log, fmt.Errorf("generate OTP: %w", err))
		return
	}
	if err := s.Users.SetOTP(r.Context(), user.Email, otp, otpTTL); err != nil {
		s.fail(w, log, err)
		return
	}

	s.sendEmail(r, user, "Reset your Fitly password",
		fmt.Sprintf("Your password reset code is: %s\nIt expires in %d minutes.", otp, int(otpTTL.Minutes())))

	log.Infow("Password reset requested", "user_id", user.ID.Hex())
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Reset Password")

	var req ResetPasswordRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, log, fmt.Errorf("hash password: %w", err))
		return
	}

	if err := s.Users.ResetPassword(r.Context(), req.Email, req.OTP, string(hashedPassword)); err != nil {
		if errors.Is(err, apierr.ErrUnauthorized) || errors.Is(err, apierr.ErrNotFound) {
			err = apierr.New(http.StatusUnauthorized, "INVALID_OTP", "invalid or expired reset code", apierr.ErrUnauthorized)
		}
		s.fail(w, log, err)
		return
	}

	log.Infow("Password reset", "email", req.Email)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

func (s *Server) issueToken(u *models.User) (string, error) {
	token, err := utils.GenerateToken(u.ID.Hex(), s.secret, s.Config.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// sendEmail delivers a notification in the background. Failures are only logged.
func (s *Server) sendEmail(r *http.Request, u *models.User, subject, text string) {
	if s.Mailer == nil {
		return
	}
	ctx, cancel := detached(r)
	go func() {
		defer cancel()
		html := "<p>" + text + "</p>"
		if err := s.Mailer.SendEmail(ctx, u.Name, u.Email, subject, text, html); err != nil {
			s.Log.Debugw("Email not sent", "subject", subject, "user_id", u.ID.Hex(), "error", err)
		}
	}()
}
