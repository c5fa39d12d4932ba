package articles

import "time"

type Article struct {
	ID        int64
	Title     string
	Content   string
	Published bool
	// UserID is nil once the owning account has been deleted.
	UserID    *int64
	OwnerName string
	CreatedAt time.Time
	UpdatedAt time.Time
}
