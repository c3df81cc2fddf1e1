package game

import (
	"context"
	"wordrush/content"
	"wordrush/domain"
)

// Conn is where a session publishes events for one identity.
type Conn interface {
	Send(ev Event) error
}

type ContentProvider interface {
	Packs() map[string]string
	Has(packID string) bool
	DefaultPack() string
	RandomEntry(packID string) (content.Entry, error)
}

type AccountStore interface {
	AddScoreDeltas(ctx context.Context, userId string, delta domain.ScoreDelta) error
	TopN(ctx context.Context, category domain.Category, n int) ([]domain.LeaderboardEntry, error)
	GetProfile(ctx context.Context, userId string) (domain.Profile, error)
}

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}
