package api

import (
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"github.com/raushankrgupta/wardrobe-stylist/subscription"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

// RecommendationResponse is the body of both recommendation endpoints
type RecommendationResponse struct {
	*recommend.Result
	SubscriptionInfo subscription.Status      `json:"subscriptionInfo"`
	AccessInfo       *subscription.AccessInfo `json:"accessInfo,omitempty"`
}

// SubscriptionRequiredResponse is returned when the free quota is used up
type SubscriptionRequiredResponse struct {
	utils.ErrorResponse
	SubscriptionRequired bool                `json:"subscriptionRequired"`
	SubscriptionInfo     subscription.Status `json:"subscriptionInfo"`
}

// ItemsRecommendationRequest asks for outfits built from selected wardrobe items
type ItemsRecommendationRequest struct {
	ItemIDs  []string `json:"itemIds" validate:"required,min=1,max=50,dive,mongodb"`
	Occasion string   `json:"occasion" validate:"max=50"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Recommendations")

	user := currentUser(r)
	items, err := s.Wardrobe.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	s.recommend(w, r, log, user, items, strings.TrimSpace(r.URL.Query().Get("occasion")))
}

func (s *Server) handleRecommendationsForItems(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Recommendations For Items")

	var req ItemsRecommendationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.ItemIDs))
	seen := make(map[primitive.ObjectID]bool, len(req.ItemIDs))
	for _, hex := range req.ItemIDs {
		id, err := parseObjectID(hex)
		if err != nil {
			s.fail(w, log, err)
			return
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	user := currentUser(r)
	items, err := s.Wardrobe.GetByIDs(r.Context(), user.ID, ids)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	if len(items) != len(ids) {
		s.fail(w, log, apierr.New(http.StatusNotFound, "NOT_FOUND", "one or more items were not found in your wardrobe", apierr.ErrNotFound))
		return
	}
	s.recommend(w, r, log, user, items, strings.TrimSpace(req.Occasion))
}

// recommend applies the gate: empty wardrobe, then quota, then the engine
func (s *Server) recommend(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, user *models.User, items []models.WardrobeItem, occasion string) {
	profile := recommend.ProfileOf(user)

	if len(items) == 0 {
		utils.RespondJSON(w, http.StatusOK, RecommendationResponse{
			Result: &recommend.Result{
				Recommendations:  []models.OutfitCandidate{},
				WardrobeAnalysis: s.Engine.Analyze(items, profile),
				Message:          recommend.EmptyWardrobeMessage,
			},
			SubscriptionInfo: s.Subscriptions.StatusOf(user),
		})
		return
	}

	authorized, access, err := s.Subscriptions.Authorize(r.Context(), user)
	if errors.Is(err, apierr.ErrQuotaExceeded) {
		log.Infow("Free recommendation limit reached", "user_id", user.ID.Hex())
		apiErr := apierr.From(err)
		utils.RespondJSON(w, http.StatusForbidden, SubscriptionRequiredResponse{
			ErrorResponse: utils.ErrorResponse{
				Error: "You have used all your free recommendations. Subscribe to get unlimited recommendations.",
				Code:  apiErr.Code,
			},
			SubscriptionRequired: true,
			SubscriptionInfo:     s.Subscriptions.StatusOf(user),
		})
		return
	}
	if err != nil {
		s.fail(w, log, err)
		return
	}

	result, err := s.Engine.Recommend(r.Context(), recommend.Input{
		Items:    items,
		Profile:  profile,
		Occasion: occasion,
	})
	if err != nil {
		log.Warnw("Recommendation engine failed, using fallback", "user_id", authorized.ID.Hex(), "error", err)
		result = s.Engine.Fallback(items)
	}

	log.Infow("Recommendations generated",
		"user_id", authorized.ID.Hex(),
		"items", len(items),
		"outfits", len(result.Recommendations),
		"degraded", result.Degraded,
	)
	utils.RespondJSON(w, http.StatusOK, RecommendationResponse{
		Result:           result,
		SubscriptionInfo: s.Subscriptions.StatusOf(authorized),
		AccessInfo:       &access,
	})
}
