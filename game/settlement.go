package game

import (
	"context"
	"slices"
	"sync"
	"time"
	"wordrush/domain"
	"wordrush/logger"

	"github.com/rs/zerolog"
)

// Settler reports final scores to the account store and tells the players
// how their game ended. Gameplay never waits on it.
type Settler struct {
	store   AccountStore
	timeout time.Duration
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

func NewSettler(store AccountStore, timeout time.Duration) *Settler {
	return &Settler{
		store:   store,
		timeout: timeout,
		logger:  logger.Component("settler"),
	}
}

// Rank orders players by score, highest first. Ties keep their order.
func Rank(players []participant) []Standing {
	ranking := make([]Standing, 0, len(players))
	for i := range players {
		ranking = append(ranking, players[i].standing())
	}
	slices.SortStableFunc(ranking, func(a, b Standing) int {
		return b.Score - a.Score
	})
	return ranking
}

func (s *Settler) SettleRoom(roomID string, members []participant, reason string) {
	ranking := Rank(members)
	winner := ""
	if len(ranking) > 0 {
		winner = ranking[0].Name
	}

	s.wg.Go(func() {
		for _, m := range members {
			if m.score > 0 {
				s.addDeltas(m.id, domain.ScoreDelta{Aggregate: m.score, Duo: m.score})
			}
		}
		for _, m := range members {
			m.send(Event{Type: EventGameEnded, Payload: GameEnded{
				Ranking:             ranking,
				Winner:              winner,
				FinalScore:          m.score,
				FinalAggregateScore: s.aggregate(m.id),
				Reason:              reason,
			}})
		}
		s.logger.Debug().Str("room", roomID).Str("winner", winner).Msg("room settled")
	})
}

func (s *Settler) SettleSolo(p participant, reason string) {
	s.wg.Go(func() {
		if p.score > 0 {
			s.addDeltas(p.id, domain.ScoreDelta{Aggregate: p.score, Personal: p.score})
		}
		p.send(Event{Type: EventGameEnded, Payload: GameEnded{
			FinalScore:          p.score,
			FinalAggregateScore: s.aggregate(p.id),
			Reason:              reason,
		}})
		s.logger.Debug().Str("player", p.id).Int("score", p.score).Msg("solo session settled")
	})
}

// Wait blocks until every settlement started so far is done.
func (s *Settler) Wait() {
	s.wg.Wait()
}

func (s *Settler) addDeltas(userID string, delta domain.ScoreDelta) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.AddScoreDeltas(ctx, userID, delta); err != nil {
		s.logger.Error().Err(err).Str("player", userID).Int("score", delta.Aggregate).Msg("failed to record score")
	}
}

func (s *Settler) aggregate(userID string) *int {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("player", userID).Msg("failed to read aggregate score")
		return nil
	}
	return &profile.Aggregate
}
