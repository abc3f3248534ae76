package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BusRepository defines persistence operations for fleet directory entries.
type BusRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Bus, error)
	ListAvailable(ctx context.Context, page, limit int) ([]*Bus, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*Bus, int64, error)

	// Search returns available buses departing on the given calendar date
	// (time of day ignored) whose route contains both substrings,
	// case-insensitively.
	Search(ctx context.Context, date time.Time, from, to string) ([]*Bus, error)

	Save(ctx context.Context, bus *Bus) error
	Update(ctx context.Context, bus *Bus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
