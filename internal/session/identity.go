package session

import (
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/google/uuid"
)

// Identity is the signed-in user as the stores see it.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromProfile builds an Identity from its profiles row.
func FromProfile(p models.Profile) Identity {
	return Identity{
		ID:        p.ID,
		Email:     p.Email,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
