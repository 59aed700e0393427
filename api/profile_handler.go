package api

import (
	"net/http"
	"strings"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

// UpdateProfileRequest holds the profile fields a user may change. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	SkinTone       *string `json:"skinTone" validate:"omitempty,max=50"`
	BodyType       *string `json:"bodyType" validate:"omitempty,max=50"`
	PreferredStyle *string `json:"preferredStyle" validate:"omitempty,max=50"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": currentUser(r)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Update Profile")

	var req UpdateProfileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, log, err)
		return
	}

	name := trimmed(req.Name)
	if name != nil && *name == "" {
		s.fail(w, log, apierr.Validation("validation failed", map[string]string{"name": "is required"}))
		return
	}

	user := currentUser(r)
	updated, err := s.Users.UpdateProfile(r.Context(), user.ID, models.ProfileUpdate{
		Name:           name,
		SkinTone:       trimmed(req.SkinTone),
		BodyType:       trimmed(req.BodyType),
		PreferredStyle: trimmed(req.PreferredStyle),
	})
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Infow("Profile updated", "user_id", user.ID.Hex())
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": updated})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
