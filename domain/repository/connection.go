package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IPlatformConnection is the credential store: at most one row per (user, platform).
type IPlatformConnection interface {
	// Get returns nil, nil when the user never connected the platform.
	Get(ctx context.Context, userID, platform string) (*model.PlatformConnection, error)
	// Upsert inserts or overwrites the row for (UserID, Platform).
	Upsert(ctx context.Context, conn *model.PlatformConnection) error
	// Disconnect clears both tokens and marks the row disconnected.
	Disconnect(ctx context.Context, userID, platform string) error
	ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error)
}
