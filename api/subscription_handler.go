package api

import (
	"net/http"

	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

// SubscribeRequest selects a plan
type SubscribeRequest struct {
	PlanID string `json:"planId" validate:"required,max=50"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"plans": s.Subscriptions.Plans()})
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, s.Subscriptions.StatusOf(currentUser(r)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Subscribe")

	var req SubscribeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	user, err := s.Subscriptions.Subscribe(r.Context(), currentUser(r).ID, req.PlanID)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Subscription activated",
		"subscription": s.Subscriptions.StatusOf(user),
	})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Cancel Subscription")

	user, err := s.Subscriptions.Cancel(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Subscription cancelled",
		"subscription": s.Subscriptions.StatusOf(user),
	})
}
