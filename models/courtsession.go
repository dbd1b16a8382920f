package models

import "time"

// SessionSnapshot holds a point-in-time copy of a court session. It is what the
// registry hands out; the live session is never shared.
type SessionSnapshot struct {
	ID           string            `json:"meeting_id" bson:"_id"`
	HostID       string            `json:"host_id" bson:"hostID"`
	HostName     string            `json:"host_name" bson:"hostName"`
	Participants []Identity        `json:"participants" bson:"participants"`
	Transcript   []TranscriptEntry `json:"transcript,omitempty" bson:"transcript"`
	CreatedAt    time.Time         `json:"created_at" bson:"createdAt"`
	EndedAt      *time.Time        `json:"ended_at,omitempty" bson:"endedAt,omitempty"`
	Active       bool              `json:"is_active" bson:"isActive"`
}

// SessionSummary is the transcript-less view returned by the session info routes
type SessionSummary struct {
	ID              string     `json:"meeting_id"`
	HostID          string     `json:"host_id"`
	HostName        string     `json:"host_name"`
	Participants    []Identity `json:"participants"`
	TranscriptCount int        `json:"transcript_count"`
	CreatedAt       time.Time  `json:"created_at"`
	Active          bool       `json:"is_active"`
}

// Summary drops the transcript and keeps its length
func (s SessionSnapshot) Summary() SessionSummary {
	return SessionSummary{
		ID:              s.ID,
		HostID:          s.HostID,
		HostName:        s.HostName,
		Participants:    s.Participants,
		TranscriptCount: len(s.Transcript),
		CreatedAt:       s.CreatedAt,
		Active:          s.Active,
	}
}
