package memory

import (
	"context"
	"sync"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
)

type userRecord struct {
	profile  domain.UserProfile
	wishlist []domain.ProductReference
	cart     []domain.CartLine
}

// Users is an in-memory user store.
type Users struct {
	mu    sync.RWMutex
	order []string
	users map[string]*userRecord
}

var _ out.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: make(map[string]*userRecord)}
}

// Put inserts or replaces a profile, keeping any activity already recorded.
func (u *Users) Put(profile domain.UserProfile) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record(profile.ID)
	rec.profile = profile
}

// SetActivity replaces a user's wishlist and cart.
func (u *Users) SetActivity(userID string, wishlist []domain.ProductReference, cart []domain.CartLine) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record(userID)
	rec.wishlist = wishlist
	rec.cart = cart
}

func (u *Users) record(userID string) *userRecord {
	rec, ok := u.users[userID]
	if !ok {
		rec = &userRecord{profile: domain.UserProfile{ID: userID}}
		u.users[userID] = rec
		u.order = append(u.order, userID)
	}
	return rec
}

func (u *Users) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	rec, ok := u.users[userID]
	if !ok {
		return nil, nil
	}
	profile := rec.profile
	if profile.StyleSuggestions != nil {
		cached := *profile.StyleSuggestions
		cached.Outfits = append([]domain.StoredOutfit(nil), cached.Outfits...)
		profile.StyleSuggestions = &cached
	}
	return &profile, nil
}

func (u *Users) SaveStyleSuggestion(ctx context.Context, userID string, suggestion *domain.CachedStyleSuggestion) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	rec := u.record(userID)
	if suggestion == nil {
		rec.profile.StyleSuggestions = nil
		return nil
	}
	stored := *suggestion
	stored.Outfits = append([]domain.StoredOutfit(nil), suggestion.Outfits...)
	rec.profile.StyleSuggestions = &stored
	return nil
}

func (u *Users) ScanActivity(ctx context.Context, fn func(*domain.UserActivity) error) error {
	u.mu.RLock()
	activities := make([]*domain.UserActivity, 0, len(u.order))
	for _, id := range u.order {
		rec := u.users[id]
		activity := &domain.UserActivity{
			UserID:   id,
			Wishlist: rec.wishlist,
			Cart:     rec.cart,
		}
		if rec.profile.StyleSuggestions != nil {
			activity.Outfits = rec.profile.StyleSuggestions.Outfits
		}
		activities = append(activities, activity)
	}
	u.mu.RUnlock()

	for _, activity := range activities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(activity); err != nil {
			return err
		}
	}
	return nil
}
