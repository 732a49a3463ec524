package user

import "time"

// User is a lightweight identity. Clients hold only the server-issued
// auth token; the nick is a display name with no uniqueness guarantee.
type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	AuthToken string    `json:"-" bson:"auth_token"`
	Nick      string    `json:"nick" bson:"nick"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
