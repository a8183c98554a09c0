package model

import "time"

// Hall is a screening room. Seats belong to exactly one hall and sessions
// are scheduled against one hall. Halls are owned by an OWNER user who
// manages the catalog.
type Hall struct {
	ID        uint64    // halls.id
	OwnerID   uint64    // halls.owner_id
	Name      string    // halls.name
	CreatedAt time.Time // halls.created_at
	UpdatedAt time.Time // halls.updated_at
}
