package reset

import "time"

// StoredResetToken is a pending password reset. Tokens are single use.
type StoredResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Repo stores pending reset tokens. Take removes and returns the token in one
// step so that two concurrent resets cannot both consume it.
type Repo interface {
	Put(t *StoredResetToken) error
	Take(token string) (*StoredResetToken, error)
	DeleteByUserID(userID string) error
}
