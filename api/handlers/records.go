package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/records"
)

// Records exported for testing purposes
type Records struct {
	Manager *records.Manager
}

// RecordsHandler lists every criminal record
func (rc Records) RecordsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := rc.Manager.All(r.Context())
	if err != nil {
		writeError("failed to get criminal records", w, err)
		return
	}
	flagged := lo.CountBy(all, func(record models.CriminalRecord) bool {
		return record.Status == models.RecordFlagged
	})
	writeJSON(w, http.StatusOK, models.RecordsResponse{Records: nonNil(all), Total: len(all), Flagged: flagged})
}

// FlaggedRecordsHandler lists the flagged criminal records
func (rc Records) FlaggedRecordsHandler(w http.ResponseWriter, r *http.Request) {
	flagged, err := rc.Manager.Flagged(r.Context())
	if err != nil {
		writeError("failed to get flagged criminal records", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.FlaggedRecordsResponse{Records: nonNil(flagged), Count: len(flagged)})
}

// SearchRecordHandler finds the record whose name contains the path name
func (rc Records) SearchRecordHandler(w http.ResponseWriter, r *http.Request) {
	record, err := rc.Manager.Search(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError("failed to find criminal record", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RecordSearchResponse{Found: true, Record: record})
}

// CreateRecordHandler adds a criminal record
func (rc Records) CreateRecordHandler(w http.ResponseWriter, r *http.Request) {
	var record models.CriminalRecord
	if err := decodeBody(r, &record); err != nil {
		writeError("invalid record format", w, err)
		return
	}
	if err := rc.Manager.Add(r.Context(), record); err != nil {
		writeError("failed to add criminal record", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Success: true, Message: "Record added successfully"})
}

func nonNil(list []models.CriminalRecord) []models.CriminalRecord {
	if list == nil {
		return []models.CriminalRecord{}
	}
	return list
}
