package pg

import (
	"time"

	"github.com/google/uuid"
)

// Model is the base for entities addressed by opaque public identifiers
// (e.g. wallet top-up requests reviewed from the admin console).
type Model struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
