package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

const recentEventsLimit = 20

// Tier thresholds in trust points.
const (
	trustedPoints     = 50
	establishedPoints = 20
	contributorPoints = 5
)

// TierFor maps trust points to a reputation tier.
func TierFor(points int) model.TrustTier {
	switch {
	case points >= trustedPoints:
		return model.TierTrusted
	case points >= establishedPoints:
		return model.TierEstablished
	case points >= contributorPoints:
		return model.TierContributor
	default:
		return model.TierNewcomer
	}
}

type ActorService struct {
	actors ActorStore
	events TrustEventStore
	now    func() time.Time
}

func NewActorService(actors ActorStore, events TrustEventStore) *ActorService {
	return &ActorService{actors: actors, events: events, now: time.Now}
}

// Profile returns an actor's trust profile with their latest trust events.
// AccountAge is in whole days.
func (s *ActorService) Profile(ctx context.Context, actorID string) (*model.ActorProfileResponse, error) {
	a, err := s.actors.FindActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("actor profile: %w", err)
	}
	events, err := s.events.ListActorEvents(ctx, actorID, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("actor profile: %w", err)
	}
	if events == nil {
		events = []model.TrustEvent{}
	}

	age := int(s.now().Sub(a.CreatedAt).Hours() / 24)
	return &model.ActorProfileResponse{
		UserID:       a.ID,
		DisplayName:  a.DisplayName,
		TrustPoints:  a.TrustPoints,
		TrustTier:    TierFor(a.TrustPoints),
		AccountAge:   max(0, age),
		RecentEvents: events,
	}, nil
}
