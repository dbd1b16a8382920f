package models

// Record statuses
const (
	RecordFlagged = "Flagged"
	RecordClean   = "Clean"
)

// CriminalRecord holds the structure for the criminalrecords collection in mongo
type CriminalRecord struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Status  string `json:"status" bson:"status" validate:"required,oneof=Flagged Clean"`
	Crime   string `json:"crime" bson:"crime" validate:"required"`
	Year    string `json:"year" bson:"year" validate:"required"`
	Details string `json:"details" bson:"details"`
}
