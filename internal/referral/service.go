package referral

import (
	"context"
	"time"

	"learn-market/internal/model"
)

// Store is everything the reporter reads. *store.Database satisfies it.
type Store interface {
	GraphStore
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	LeaderboardAggregates(ctx context.Context) ([]model.LeaderboardAggregate, error)
	ReferralPurchases(ctx context.Context, referrerID int64) ([]model.ReferralPurchase, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Network(ctx context.Context) (*Network, error) {
	return BuildNetwork(ctx, s.store)
}

func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	aggs, err := s.store.LeaderboardAggregates(ctx)
	if err != nil {
		return nil, err
	}
	return RankLeaderboard(aggs, time.Now()), nil
}

func (s *Service) Summary(ctx context.Context, accountID int64) (*Summary, error) {
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	purchases, err := s.store.ReferralPurchases(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return BuildSummary(account, purchases, time.Now()), nil
}
