package models

import "time"

// User is the local record provisioned from identity-provider claims on first login.
// The document key is the OIDC subject, so one subject maps to at most one record.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
