package models

import "time"

// LoginRequest creates an identity
type LoginRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Role Role   `json:"role"`
}

// LoginResponse returns the new identity and its bearer token
type LoginResponse struct {
	Identity
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// VerifyResponse is returned for a valid token
type VerifyResponse struct {
	Success bool     `json:"success"`
	User    Identity `json:"user"`
}

// JoinRequest names the session to join
type JoinRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// SessionResponse is returned when a session is created or joined
type SessionResponse struct {
	SessionSummary
	Message string `json:"message"`
}

// SessionListResponse lists sessions
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

// ParticipantsResponse lists the participants of a session
type ParticipantsResponse struct {
	SessionID    string     `json:"meeting_id"`
	Participants []Identity `json:"participants"`
}

// TranscriptResponse returns a session transcript
type TranscriptResponse struct {
	SessionID  string            `json:"meeting_id"`
	Transcript []TranscriptEntry `json:"transcript"`
	Active     bool              `json:"is_active"`
	Archived   bool              `json:"archived"`
}

// MessageResponse acknowledges an action
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReportRequest carries the caller supplied parts of a session report
type ReportRequest struct {
	JudgeStatement         string   `json:"judge_statement" validate:"max=10000"`
	Duration               string   `json:"duration"`
	CriminalRecordsChecked []string `json:"criminal_records_checked"`
}

// ChatRequest is one question to the assistant
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// ChatResponse carries the assistant's answer
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatQuestion is one frame read from the chat socket
type ChatQuestion struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// EvidenceUploadResponse describes stored uploads
type EvidenceUploadResponse struct {
	Message string         `json:"message"`
	Files   []EvidenceFile `json:"files"`
}

// EvidenceListResponse lists stored evidence
type EvidenceListResponse struct {
	Files []EvidenceFile `json:"files"`
	Count int            `json:"count"`
}

// EvidenceSearchRequest queries the evidence index
type EvidenceSearchRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k" validate:"min=0,max=20"`
}

// EvidenceSearchResponse returns evidence hits, best first
type EvidenceSearchResponse struct {
	Results []EvidenceResult `json:"results"`
}

// RecordsResponse lists criminal records
type RecordsResponse struct {
	Records []CriminalRecord `json:"records"`
	Total   int              `json:"total"`
	Flagged int              `json:"flagged"`
}

// FlaggedRecordsResponse lists flagged criminal records
type FlaggedRecordsResponse struct {
	Records []CriminalRecord `json:"records"`
	Count   int              `json:"count"`
}

// RecordSearchResponse is a name lookup hit
type RecordSearchResponse struct {
	Found  bool           `json:"found"`
	Record CriminalRecord `json:"record"`
}
