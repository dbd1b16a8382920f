package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/databases"
	"github.com/linesmerrill/court-session-api/evidence"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/records"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/relay"
	"github.com/linesmerrill/court-session-api/report"
)

// Session exported for testing purposes
type Session struct {
	Sessions    *registry.Sessions
	Identities  *registry.Identities
	Signaling   *relay.Signaling
	Transcripts *relay.Transcripts
	// Archive is nil when no database is configured
	Archive    databases.SessionArchiveDatabase
	Evidence   *evidence.Service
	Records    *records.Manager
	Summarizer report.Summarizer
}

// CreateSessionHandler opens a new session hosted by the caller
func (s Session) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, s.Identities)
	if !ok {
		return
	}
	snapshot, err := s.Sessions.Create(caller.ID)
	if err != nil {
		writeError("failed to create session", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionSummary: snapshot.Summary(),
		Message:        fmt.Sprintf("Meeting %s created successfully", snapshot.ID),
	})
}

// JoinSessionHandler adds the caller to an active session
func (s Session) JoinSessionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, s.Identities)
	if !ok {
		return
	}
	var req models.JoinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError("failed to decode request body", w, err)
		return
	}
	snapshot, err := s.Sessions.Join(req.SessionID, caller.ID)
	if err != nil {
		writeError(fmt.Sprintf("failed to join meeting %s", registry.Normalize(req.SessionID)), w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionSummary: snapshot.Summary(),
		Message:        fmt.Sprintf("%s joined meeting %s", caller.DisplayName, snapshot.ID),
	})
}

// LeaveSessionHandler removes the caller from a session and closes the
// caller's relay connections in it
func (s Session) LeaveSessionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, s.Identities)
	if !ok {
		return
	}
	sessionID := registry.Normalize(mux.Vars(r)["session_id"])
	if err := s.Sessions.Leave(sessionID, caller.ID); err != nil {
		writeError("failed to leave meeting", w, err)
		return
	}
	if s.Signaling != nil {
		s.Signaling.Disconnect(sessionID, caller.ID)
	}
	if s.Transcripts != nil {
		s.Transcripts.Stop(sessionID, caller.ID)
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "Left meeting successfully"})
}

// ActiveSessionsHandler lists the active sessions
func (s Session) ActiveSessionsHandler(w http.ResponseWriter, r *http.Request) {
	summaries := lo.Map(s.Sessions.ListActive(), func(snapshot models.SessionSnapshot, _ int) models.SessionSummary {
		return snapshot.Summary()
	})
	writeJSON(w, http.StatusOK, models.SessionListResponse{Sessions: summaries, Count: len(summaries)})
}

// ArchivedSessionsHandler pages through swept sessions, newest first
func (s Session) ArchivedSessionsHandler(w http.ResponseWriter, r *http.Request) {
	resp := models.SessionListResponse{Sessions: []models.SessionSummary{}}
	if s.Archive == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	archived, err := s.Archive.List(ctx, limit, page)
	if err != nil {
		writeError("failed to list archived sessions", w, err)
		return
	}
	for _, snapshot := range archived {
		resp.Sessions = append(resp.Sessions, snapshot.Summary())
	}
	resp.Count = len(resp.Sessions)
	writeJSON(w, http.StatusOK, resp)
}

// SessionHandler returns a session's summary
func (s Session) SessionHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, _, err := s.lookup(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError("failed to get meeting", w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.Summary())
}

// ParticipantsHandler lists a session's participants
func (s Session) ParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, _, err := s.lookup(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError("failed to get meeting participants", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ParticipantsResponse{SessionID: snapshot.ID, Participants: snapshot.Participants})
}

// TranscriptHandler returns a session's transcript. Swept sessions are read
// back from the archive.
func (s Session) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, archived, err := s.lookup(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError("failed to get meeting transcript", w, err)
		return
	}
	transcript := snapshot.Transcript
	if transcript == nil {
		transcript = []models.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, models.TranscriptResponse{
		SessionID:  snapshot.ID,
		Transcript: transcript,
		Active:     snapshot.Active,
		Archived:   archived,
	})
}

// SessionReportHandler builds the written report of a session
func (s Session) SessionReportHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError("failed to decode request body", w, err)
			return
		}
	}
	snapshot, _, err := s.lookup(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError("failed to get meeting", w, err)
		return
	}

	in := report.Input{
		Session:        snapshot,
		JudgeStatement: req.JudgeStatement,
		Duration:       req.Duration,
		GeneratedAt:    time.Now().UTC(),
	}
	if in.Duration == "" {
		in.Duration = sessionDuration(snapshot, in.GeneratedAt)
	}
	if s.Evidence != nil {
		files, err := s.Evidence.List()
		if err != nil {
			zap.S().Warnw("report without evidence listing", "meeting_id", snapshot.ID, "error", err)
		}
		in.Evidence = files
	}
	if s.Records != nil {
		for _, name := range lo.Uniq(req.CriminalRecordsChecked) {
			record, err := s.Records.Search(r.Context(), name)
			if err != nil {
				zap.S().Debugw("checked record not found", "name", name, "error", err)
				continue
			}
			in.Records = append(in.Records, record)
		}
	}

	writeJSON(w, http.StatusOK, report.Build(r.Context(), in, s.Summarizer))
}

// lookup finds a session in the registry, then in the archive. The flag
// reports whether the archive answered.
func (s Session) lookup(ctx context.Context, sessionID string) (models.SessionSnapshot, bool, error) {
	snapshot, err := s.Sessions.Get(sessionID)
	if err == nil {
		return snapshot, false, nil
	}
	if !errors.Is(err, registry.ErrNotFound) || s.Archive == nil {
		return models.SessionSnapshot{}, false, err
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	archived, archiveErr := s.Archive.FindOne(ctx, registry.Normalize(sessionID))
	if archiveErr != nil {
		if errors.Is(archiveErr, databases.ErrNoArchive) {
			return models.SessionSnapshot{}, false, err
		}
		return models.SessionSnapshot{}, false, archiveErr
	}
	return *archived, true, nil
}

func sessionDuration(snapshot models.SessionSnapshot, now time.Time) string {
	end := now
	if snapshot.EndedAt != nil {
		end = *snapshot.EndedAt
	}
	if snapshot.CreatedAt.IsZero() || end.Before(snapshot.CreatedAt) {
		return ""
	}
	return end.Sub(snapshot.CreatedAt).Round(time.Second).String()
}
