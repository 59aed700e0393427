package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserRepository keeps users in process memory. It is used for tests and
// for running the service without MongoDB.
type MemoryUserRepository struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	byEmail map[string]primitive.ObjectID
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory UserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[primitive.ObjectID]*models.User),
		byEmail: make(map[string]primitive.ObjectID),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("user with email %s: %w", u.Email, apierr.ErrAlreadyExists)
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID.Hex(), apierr.ErrAlreadyExists)
	}
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	stored := *u
	r.users[u.ID] = &stored
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	return r.get(id)
}

// get returns a copy; callers hold mu
func (r *MemoryUserRepository) get(id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.SkinTone != nil {
		u.SkinTone = *upd.SkinTone
	}
	if upd.BodyType != nil {
		u.BodyType = *upd.BodyType
	}
	if upd.PreferredStyle != nil {
		u.PreferredStyle = *upd.PreferredStyle
	}
	u.UpdatedAt = r.now().UTC()
	return r.get(id)
}

func (r *MemoryUserRepository) UpdateSubscription(_ context.Context, id primitive.ObjectID, upd models.SubscriptionUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	u.SubscriptionStatus = upd.Status
	u.SubscriptionPlan = upd.Plan
	u.SubscriptionStartDate = upd.StartDate
	u.SubscriptionEndDate = upd.EndDate
	u.UpdatedAt = r.now().UTC()
	return r.get(id)
}

func (r *MemoryUserRepository) ConsumeRecommendation(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	if u.RecommendationsUsed >= u.FreeRecommendationsLimit {
		return nil, apierr.ErrQuotaExceeded
	}
	u.RecommendationsUsed++
	u.UpdatedAt = r.now().UTC()
	return r.get(id)
}

func (r *MemoryUserRepository) SetOTP(_ context.Context, email, otp string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return fmt.Errorf("user: %w", apierr.ErrNotFound)
	}
	expires := r.now().UTC().Add(ttl)
	u := r.users[id]
	u.OTP = otp
	u.OTPExpiresAt = &expires
	u.OTPAttempts = 0
	return nil
}

func (r *MemoryUserRepository) ResetPassword(_ context.Context, email, otp, passwordHash string) error {
	if otp == "" {
		return fmt.Errorf("otp is required: %w", apierr.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok || r.users[id].OTP == "" {
		return fmt.Errorf("invalid email or otp: %w", apierr.ErrUnauthorized)
	}
	u := r.users[id]
	now := r.now().UTC()
	if u.OTP != otp || u.OTPAttempts >= MaxOTPAttempts || u.OTPExpiresAt == nil || !now.Before(*u.OTPExpiresAt) {
		u.OTPAttempts++
		return fmt.Errorf("invalid email or otp: %w", apierr.ErrUnauthorized)
	}
	u.Password = passwordHash
	u.OTP = ""
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
	u.UpdatedAt = now
	return nil
}

// MemoryWardrobeRepository keeps wardrobe items in process memory
type MemoryWardrobeRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.WardrobeItem
	now   func() time.Time
}

// NewMemoryWardrobeRepository returns an empty in-memory WardrobeRepository
func NewMemoryWardrobeRepository() *MemoryWardrobeRepository {
	return &MemoryWardrobeRepository{
		items: make(map[primitive.ObjectID]models.WardrobeItem),
		now:   time.Now,
	}
}

func (r *MemoryWardrobeRepository) Create(_ context.Context, item *models.WardrobeItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("wardrobe item %s: %w", item.ID.Hex(), apierr.ErrAlreadyExists)
	}
	now := r.now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryWardrobeRepository) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.WardrobeItem, error) {
	return r.filter(func(it models.WardrobeItem) bool { return it.UserID == userID }), nil
}

func (r *MemoryWardrobeRepository) GetByIDs(_ context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) ([]models.WardrobeItem, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(it models.WardrobeItem) bool { return it.UserID == userID && want[it.ID] }), nil
}

func (r *MemoryWardrobeRepository) filter(keep func(models.WardrobeItem) bool) []models.WardrobeItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.WardrobeItem{}
	for _, it := range r.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (r *MemoryWardrobeRepository) Delete(_ context.Context, userID, id primitive.ObjectID) (*models.WardrobeItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("wardrobe item %s: %w", id.Hex(), apierr.ErrNotFound)
	}
	if it.UserID != userID {
		return nil, fmt.Errorf("wardrobe item %s: %w", id.Hex(), apierr.ErrForbidden)
	}
	delete(r.items, id)
	return &it, nil
}
