// Package subscription manages plans, simulated subscriptions and the free recommendation quota.
package subscription

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/repository"
)

// DefaultPlans is the plan catalog. Payment is simulated.
var DefaultPlans = []models.SubscriptionPlan{
	{
		ID:           "monthly",
		Name:         "Stylist Monthly",
		Price:        9.99,
		Currency:     "USD",
		DurationDays: 30,
		Features:     []string{"Unlimited outfit recommendations", "Shopping suggestions for missing items", "Occasion based styling"},
	},
	{
		ID:           "yearly",
		Name:         "Stylist Yearly",
		Price:        99.99,
		Currency:     "USD",
		DurationDays: 365,
		Features:     []string{"Everything in Monthly", "Two months free", "Early access to new features"},
	},
}

// Status is the subscription and usage summary of a user
type Status struct {
	Status              string     `json:"status"`
	Plan                string     `json:"plan,omitempty"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	Active              bool       `json:"active"`
	RecommendationsUsed int        `json:"recommendationsUsed"`
	FreeLimit           int        `json:"freeRecommendationsLimit"`
	Remaining           int        `json:"remainingFreeRecommendations"`
}

// AccessInfo describes why a recommendation request was allowed
type AccessInfo struct {
	Unlimited bool `json:"unlimited"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// Notifier sends subscription confirmations
type Notifier interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error
}

// Service applies subscription rules on top of the user store
type Service struct {
	users    repository.UserRepository
	plans    []models.SubscriptionPlan
	notifier Notifier
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewService creates a Service with the default plans. notifier may be nil.
func NewService(users repository.UserRepository, notifier Notifier, log *zap.SugaredLogger) *Service {
	return &Service{
		users:    users,
		plans:    DefaultPlans,
		notifier: notifier,
		now:      time.Now,
		log:      log.With("component", "subscription"),
	}
}

// WithClock replaces the service clock
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Plans returns the plan catalog
func (s *Service) Plans() []models.SubscriptionPlan {
	return s.plans
}

func (s *Service) plan(id string) (models.SubscriptionPlan, bool) {
	for _, p := range s.plans {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return models.SubscriptionPlan{}, false
}

// IsActive reports whether u has a paid subscription that has not ended
func (s *Service) IsActive(u *models.User) bool {
	if u == nil || u.SubscriptionStatus != models.SubscriptionActive {
		return false
	}
	return u.SubscriptionEndDate == nil || s.now().Before(*u.SubscriptionEndDate)
}

// StatusOf summarizes u
func (s *Service) StatusOf(u *models.User) Status {
	st := Status{
		Status:              u.SubscriptionStatus,
		Plan:                u.SubscriptionPlan,
		StartDate:           u.SubscriptionStartDate,
		EndDate:             u.SubscriptionEndDate,
		Active:              s.IsActive(u),
		RecommendationsUsed: u.RecommendationsUsed,
		FreeLimit:           u.FreeRecommendationsLimit,
	}
	if st.Status == "" {
		st.Status = models.SubscriptionFree
	}
	if st.Remaining = u.FreeRecommendationsLimit - u.RecommendationsUsed; st.Remaining < 0 {
		st.Remaining = 0
	}
	return st
}

// Subscribe activates planID for the user. No payment is taken.
func (s *Service) Subscribe(ctx context.Context, userID primitive.ObjectID, planID string) (*models.User, error) {
	plan, ok := s.plan(planID)
	if !ok {
		return nil, apierr.Validation("unknown plan", map[string]string{"planId": fmt.Sprintf("plan %q does not exist", planID)})
	}

	start := s.now().UTC()
	end := start.AddDate(0, 0, plan.DurationDays)
	u, err := s.users.UpdateSubscription(ctx, userID, models.SubscriptionUpdate{
		Status:    models.SubscriptionActive,
		Plan:      plan.ID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	s.log.Infow("Subscription activated", "user_id", userID.Hex(), "plan", plan.ID, "end_date", end)

	s.notify(ctx, u, "Your Fitly subscription is active",
		fmt.Sprintf("Thanks for subscribing to %s. Your plan renews on %s.", plan.Name, end.Format("January 2, 2006")))
	return u, nil
}

// Cancel ends the user's subscription now
func (s *Service) Cancel(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.SubscriptionStatus != models.SubscriptionActive {
		return nil, apierr.New(http.StatusConflict, "NO_ACTIVE_SUBSCRIPTION", "no active subscription to cancel", apierr.ErrValidation)
	}

	end := s.now().UTC()
	u, err = s.users.UpdateSubscription(ctx, userID, models.SubscriptionUpdate{
		Status:    models.SubscriptionCancelled,
		Plan:      u.SubscriptionPlan,
		StartDate: u.SubscriptionStartDate,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	s.log.Infow("Subscription cancelled", "user_id", userID.Hex())

	s.notify(ctx, u, "Your Fitly subscription was cancelled",
		"Your subscription has been cancelled. You can resubscribe at any time.")
	return u, nil
}

// Authorize admits one recommendation request. Subscribers pass freely; everyone else
// consumes one unit of the free quota or gets apierr.ErrQuotaExceeded.
func (s *Service) Authorize(ctx context.Context, u *models.User) (*models.User, AccessInfo, error) {
	if s.IsActive(u) {
		return u, AccessInfo{Unlimited: true, Used: u.RecommendationsUsed, Limit: u.FreeRecommendationsLimit}, nil
	}

	updated, err := s.users.ConsumeRecommendation(ctx, u.ID)
	if err != nil {
		return nil, AccessInfo{}, err
	}
	info := AccessInfo{
		Used:      updated.RecommendationsUsed,
		Limit:     updated.FreeRecommendationsLimit,
		Remaining: updated.FreeRecommendationsLimit - updated.RecommendationsUsed,
	}
	return updated, info, nil
}

// notify sends a best effort email
func (s *Service) notify(ctx context.Context, u *models.User, subject, text string) {
	if s.notifier == nil || u == nil {
		return
	}
	if err := s.notifier.SendEmail(ctx, u.Name, u.Email, subject, text, "<p>"+text+"</p>"); err != nil {
		s.log.Debugw("Subscription email not sent", "user_id", u.ID.Hex(), "error", err)
	}
}
