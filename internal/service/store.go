package service

import (
	"context"

	"regionchatbot/internal/core"
	"regionchatbot/internal/repository"
)

// UserStore is the persistence the session layer needs.
// *repository.UserRepository implements it.
type UserStore interface {
	GetOrCreate(ctx context.Context, id int64, languageHint string) (*core.User, error)
	GetByID(ctx context.Context, id int64) (*core.User, error)
	SetRegion(ctx context.Context, id int64, region core.Region) error
	TouchActivity(ctx context.Context, id int64) error
	Pair(ctx context.Context, id, exclude int64) (*core.User, error)
	Unpair(ctx context.Context, id int64) (*repository.Unlink, error)
	BreakPair(ctx context.Context, a, b int64) error
}

// Transport delivers outbound messages. Implementations bound each call by
// the context deadline.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, menu core.Menu) error
}

var _ UserStore = (*repository.UserRepository)(nil)
