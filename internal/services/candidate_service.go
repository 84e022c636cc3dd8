package services

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/apperr"
	"swapp/api/internal/config"
	"swapp/api/internal/logging"
	"swapp/api/internal/matching"
	"swapp/api/internal/metrics"
	"swapp/api/internal/models"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// RecommendationCache keeps the last usable recommender answer per user.
type RecommendationCache interface {
	Get(ctx context.Context, userID utils.SixID) ([]utils.SixID, bool, error)
	Set(ctx context.Context, userID utils.SixID, ids []utils.SixID) error
}

// PendingLister lists a user's open offers.
type PendingLister interface {
	Pending(ctx context.Context, userID utils.SixID) ([]models.PendingTransaction, error)
}

// Overview is the landing view of a user's items.
type Overview struct {
	Items   []models.Item               `json:"items"`
	Matches []models.Item               `json:"matches"`
	Pending []models.PendingTransaction `json:"pending"`
}

// ItemMatches is the match list for one of the user's items.
type ItemMatches struct {
	Item    *models.Item                `json:"item"`
	Matches []models.Item               `json:"matches"`
	Pending []models.PendingTransaction `json:"pending"`
}

type ICandidateService interface {
	// RecommendedItems is the recommender list narrowed to available items of other
	// users within the user's search radius. A failing or unusable recommender
	// answer falls back to every available item of other users.
	RecommendedItems(ctx context.Context, userID utils.SixID) ([]models.Item, error)
	// MatchingItems keeps the recommended items whose price band overlaps the reference item's.
	MatchingItems(ctx context.Context, userID, itemID utils.SixID) ([]models.Item, error)
	Overview(ctx context.Context, userID utils.SixID) (*Overview, error)
	ItemMatches(ctx context.Context, userID, itemID utils.SixID) (*ItemMatches, error)
}

type candidateService struct {
	db      *mongo.Database
	cfg     *config.Config
	items   IItemService
	reco    recommender.Client
	cache   RecommendationCache
	pending PendingLister
}

// NewCandidateService wires the candidate pipeline. cache may be nil.
func NewCandidateService(db *mongo.Database, cfg *config.Config, items IItemService, reco recommender.Client,
	cache RecommendationCache, pending PendingLister) ICandidateService {
	return &candidateService{db: db, cfg: cfg, items: items, reco: reco, cache: cache, pending: pending}
}

func (s *candidateService) RecommendedItems(ctx context.Context, userID utils.SixID) ([]models.Item, error) {
	user, err := findByID[models.User](ctx, s.db.Collection(usersCollection), "user", userID)
	if err != nil {
		return nil, err
	}
	origin, ok := user.CurrentLocation.Point()
	if !ok {
		return nil, apperr.Validation("current_location", "is not set")
	}

	candidates, reason, err := s.recommended(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		metrics.CandidateFallbacks.WithLabelValues(reason).Inc()
		logging.Info().Str("user_id", userID.String()).Str("reason", reason).Msg("using fallback candidates")
		candidates, err = s.items.ListAvailableExcept(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	radius := user.DistanceRangeKm
	if radius <= 0 {
		radius = s.cfg.DefaultDistanceRangeKm
	}
	return matching.WithinRadius(candidates, origin, radius), nil
}

// recommended returns the usable recommended items, or the reason there are none.
// Only storage failures are returned as errors.
func (s *candidateService) recommended(ctx context.Context, userID utils.SixID) ([]models.Item, string, error) {
	ids, cached := s.cachedIDs(ctx, userID)
	if !cached {
		scores, err := s.reco.Query(ctx, userID, s.cfg.RecommenderQueryNum)
		if err != nil {
			logging.Warn().Err(err).Str("user_id", userID.String()).Msg("recommender query failed")
			return nil, "upstream_error", nil
		}
		ids = make([]utils.SixID, 0, len(scores))
		for _, sc := range scores {
			ids = append(ids, sc.ItemID)
		}
	}
	if len(ids) == 0 {
		return nil, "empty", nil
	}

	found, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	if len(found) != len(uniqueIDs(ids)) {
		return nil, "unresolved", nil
	}
	if !cached && s.cache != nil {
		if err := s.cache.Set(ctx, userID, ids); err != nil {
			logging.Warn().Err(err).Msg("failed to cache recommendations")
		}
	}

	usable := matching.OthersAvailable(found, userID)
	if len(usable) == 0 {
		return nil, "empty", nil
	}
	return usable, "", nil
}

func (s *candidateService) cachedIDs(ctx context.Context, userID utils.SixID) ([]utils.SixID, bool) {
	if s.cache == nil {
		return nil, false
	}
	ids, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Msg("recommendation cache read failed")
		return nil, false
	}
	if ok {
		metrics.RecommendationCacheHits.Inc()
	} else {
		metrics.RecommendationCacheMisses.Inc()
	}
	return ids, ok
}

func (s *candidateService) MatchingItems(ctx context.Context, userID, itemID utils.SixID) ([]models.Item, error) {
	ref, err := findOne[models.Item](ctx, s.db.Collection(itemsCollection),
		ownedFilter(userID, itemID), "item", itemID.String())
	if err != nil {
		return nil, err
	}
	return s.matchesFor(ctx, userID, ref)
}

func (s *candidateService) matchesFor(ctx context.Context, userID utils.SixID, ref *models.Item) ([]models.Item, error) {
	recommended, err := s.RecommendedItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return matching.PriceCompatible(recommended, ref), nil
}

func (s *candidateService) Overview(ctx context.Context, userID utils.SixID) (*Overview, error) {
	owned, err := s.items.ListByOwner(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, apperr.NotFoundMessage("item", "You have yet to add your very first item.")
	}

	matches, err := s.matchesFor(ctx, userID, &owned[0])
	if err != nil {
		return nil, err
	}
	pending, err := s.pending.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Overview{Items: owned, Matches: matches, Pending: pending}, nil
}

func (s *candidateService) ItemMatches(ctx context.Context, userID, itemID utils.SixID) (*ItemMatches, error) {
	ref, err := findOne[models.Item](ctx, s.db.Collection(itemsCollection),
		ownedFilter(userID, itemID), "item", itemID.String())
	if err != nil {
		return nil, err
	}
	matches, err := s.matchesFor(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	pending, err := s.pending.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ItemMatches{Item: ref, Matches: matches, Pending: pending}, nil
}
