// Package stylist builds sticky personalized outfits and product style tips.
package stylist

import (
	"context"
	"time"

	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/pkg/apperr"
	"stylist_server/pkg/random"

	"github.com/rs/zerolog"
)

// MetricsTrigger is notified whenever stored suggestions change.
type MetricsTrigger interface {
	Trigger()
}

// SuggestionConfig sizes the candidate pools.
type SuggestionConfig struct {
	PoolSize        int
	RefreshPoolSize int
	RetryPoolSize   int
	Candidates      int
}

func DefaultSuggestionConfig() SuggestionConfig {
	return SuggestionConfig{
		PoolSize:        5,
		RefreshPoolSize: 10,
		RetryPoolSize:   20,
		Candidates:      5,
	}
}

// ServiceDeps holds dependencies for creating a Service.
type ServiceDeps struct {
	Vocabulary *domain.Vocabulary
	Users      out.UserRepository
	Catalog    out.CatalogRepository
	Detector   *GenderDetector
	Pools      *PoolFetcher
	Completer  out.TextCompleter // optional, style tips only
	Metrics    MetricsTrigger    // optional
	Config     SuggestionConfig
	Now        func() time.Time
	Logger     zerolog.Logger
}

type Service struct {
	vocab     *domain.Vocabulary
	users     out.UserRepository
	catalog   out.CatalogRepository
	detector  *GenderDetector
	pools     *PoolFetcher
	completer out.TextCompleter
	metrics   MetricsTrigger
	cfg       SuggestionConfig
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(deps ServiceDeps) *Service {
	cfg := deps.Config
	defaults := DefaultSuggestionConfig()
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.RefreshPoolSize <= 0 {
		cfg.RefreshPoolSize = defaults.RefreshPoolSize
	}
	if cfg.RetryPoolSize <= 0 {
		cfg.RetryPoolSize = defaults.RetryPoolSize
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = defaults.Candidates
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		vocab:     deps.Vocabulary,
		users:     deps.Users,
		catalog:   deps.Catalog,
		detector:  deps.Detector,
		pools:     deps.Pools,
		completer: deps.Completer,
		metrics:   deps.Metrics,
		cfg:       cfg,
		now:       now,
		log:       deps.Logger.With().Str("component", "stylist").Logger(),
	}
}

// =============================================================================
// Sticky suggestion
// =============================================================================

// GetStickySuggestion returns the cached outfit when one survives
// normalization, and otherwise generates and stores a new one.
func (s *Service) GetStickySuggestion(ctx context.Context, userID string) (*domain.StyleSuggestionResult, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cached := profile.StyleSuggestions; cached != nil && len(cached.Outfits) > 0 {
		outfits, changed := domain.NormalizeOutfits(cached.Outfits)
		if changed {
			rewritten := &domain.CachedStyleSuggestion{
				Gender:      cached.Gender,
				Outfits:     storedOutfits(outfits),
				LastUpdated: cached.LastUpdated,
			}
			if err := s.users.SaveStyleSuggestion(ctx, userID, rewritten); err != nil {
				return nil, apperr.DatabaseError("normalize style suggestion", err)
			}
			s.log.Info().Str("user_id", userID).Msg("cached suggestion normalized")
		}

		if len(outfits) > 0 && !cached.LastUpdated.IsZero() {
			return &domain.StyleSuggestionResult{
				Gender:      cached.Gender,
				Outfits:     outfits[:1],
				LastUpdated: cached.LastUpdated,
				Cached:      true,
			}, nil
		}
	}

	gender := s.detector.Detect(ctx, profile.Name)
	pools, err := s.fetchPools(ctx, gender, s.cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	if len(pools.Tops) == 0 || len(pools.Bottoms) == 0 {
		return nil, apperr.InsufficientCatalog(string(gender), "empty_pool", pools.Counts())
	}

	candidates := Generate(s.vocab, pools, s.cfg.Candidates, random.UserSeed(userID), gender)
	if len(candidates) == 0 {
		return nil, apperr.InsufficientCatalog(string(gender), "gender_filter", pools.Counts())
	}

	return s.persist(ctx, userID, gender, candidates[0])
}

// RefreshSuggestion ignores the cache and generates with a time-salted seed.
// An empty result is retried once with a larger pool, and the error reports
// the larger pool's counts.
func (s *Service) RefreshSuggestion(ctx context.Context, userID string) (*domain.StyleSuggestionResult, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	gender := s.detector.Detect(ctx, profile.Name)
	seed := random.UserSeed(userID) + uint64(s.now().UnixMilli())

	pools, err := s.fetchPools(ctx, gender, s.cfg.RefreshPoolSize)
	if err != nil {
		return nil, err
	}
	candidates := Generate(s.vocab, pools, s.cfg.Candidates, seed, gender)

	if len(candidates) == 0 {
		s.log.Debug().Str("user_id", userID).Msg("no outfit after gender filtering, retrying with a larger pool")
		pools, err = s.fetchPools(ctx, gender, s.cfg.RetryPoolSize)
		if err != nil {
			return nil, err
		}
		candidates = Generate(s.vocab, pools, s.cfg.Candidates, seed, gender)
	}

	if len(candidates) == 0 {
		reason := "gender_filter"
		if len(pools.Tops) == 0 || len(pools.Bottoms) == 0 {
			reason = "empty_pool"
		}
		return nil, apperr.InsufficientCatalog(string(gender), reason, pools.Counts())
	}

	return s.persist(ctx, userID, gender, candidates[0])
}

func (s *Service) loadProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("")
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.DatabaseError("load user", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("user")
	}
	return profile, nil
}

func (s *Service) fetchPools(ctx context.Context, gender domain.Gender, size int) (Pools, error) {
	pools, err := s.pools.Fetch(ctx, gender, size)
	if err != nil {
		return Pools{}, apperr.DatabaseError("fetch product pools", err)
	}
	return pools, nil
}

func (s *Service) persist(ctx context.Context, userID string, gender domain.Gender, candidate Candidate) (*domain.StyleSuggestionResult, error) {
	outfits, _ := domain.NormalizeOutfits(storedOutfits([]domain.PersonalizedOutfit{candidate.Outfit()}))
	if len(outfits) == 0 {
		return nil, apperr.Internal("unable to prepare outfit suggestions due to missing product data")
	}

	now := s.now().UTC()
	suggestion := &domain.CachedStyleSuggestion{
		Gender:      gender,
		Outfits:     storedOutfits(outfits),
		LastUpdated: now,
	}
	if err := s.users.SaveStyleSuggestion(ctx, userID, suggestion); err != nil {
		return nil, apperr.DatabaseError("save style suggestion", err)
	}
	if s.metrics != nil {
		s.metrics.Trigger()
	}

	s.log.Info().
		Str("user_id", userID).
		Str("gender", string(gender)).
		Str("top", outfits[0].Top.ProductID).
		Str("bottom", outfits[0].Bottom.ProductID).
		Msg("style suggestion generated")

	return &domain.StyleSuggestionResult{
		Gender:      gender,
		Outfits:     outfits,
		LastUpdated: now,
		Cached:      false,
	}, nil
}

func storedOutfits(outfits []domain.PersonalizedOutfit) []domain.StoredOutfit {
	stored := make([]domain.StoredOutfit, 0, len(outfits))
	for _, o := range outfits {
		stored = append(stored, o.Stored())
	}
	return stored
}
