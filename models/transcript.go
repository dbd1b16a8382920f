package models

import "time"

// TranscriptEntry is one finalized line of a session transcript. Entries are
// immutable once appended.
type TranscriptEntry struct {
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	SpeakerID   string    `json:"user_id" bson:"userID"`
	SpeakerName string    `json:"speaker" bson:"speaker"`
	Text        string    `json:"text" bson:"text"`
}
