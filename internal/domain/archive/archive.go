package archive

import "time"

// GameRecord is a finished game as persisted: metadata plus the
// replay blob. Owner links to the creating user's id.
type GameRecord struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Name       string    `json:"name" bson:"name"`
	Owner      string    `json:"owner" bson:"owner"`
	Black      string    `json:"black" bson:"black"`
	White      string    `json:"white" bson:"white"`
	Result     string    `json:"result,omitempty" bson:"result,omitempty"`
	Replay     []byte    `json:"-" bson:"replay"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
}

// FinishedGame is the metadata handed over when a session reaches its
// terminal state, before a GameRecord exists.
type FinishedGame struct {
	SessionID string
	Name      string
	OwnerID   string
	Black     string
	White     string
}
