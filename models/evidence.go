package models

import "time"

// EvidenceFile describes one uploaded evidence file
type EvidenceFile struct {
	Label      string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int       `json:"size"`
	Chunks     int       `json:"chunks"`
	Searchable bool      `json:"searchable"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// EvidenceResult is one hit from the evidence search index
type EvidenceResult struct {
	Content        string  `json:"content"`
	SourceLabel    string  `json:"source_label"`
	RelevanceScore float64 `json:"relevance_score"`
}
