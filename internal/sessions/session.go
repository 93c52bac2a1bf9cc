package sessions

import "time"

// Session binds a browser to an authenticated subject until ExpiresAt or logout.
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	Sub       string    `bson:"sub" json:"sub"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Expired reports whether the session is past its lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
