package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/assistant"
	"github.com/linesmerrill/court-session-api/databases"
	mocksdb "github.com/linesmerrill/court-session-api/databases/mocks"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/records"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/relay"
	"github.com/linesmerrill/court-session-api/speech"
)

// stubModel answers every question with a fixed reply
type stubModel struct {
	reply    string
	err      error
	question string
	context  string
}

func (s *stubModel) Ask(_ context.Context, question, sessionContext string) (string, error) {
	s.question, s.context = question, sessionContext
	return s.reply, s.err
}

func (s *stubModel) Summarize(context.Context, string) (string, error) {
	return "A short hearing.", s.err
}

// newTestApp wires an App the way Initialize does, without a database or
// any remote collaborator
func newTestApp(t *testing.T, archive databases.SessionArchiveDatabase) (*App, *stubModel) {
	t.Helper()
	a := &App{Archive: archive}
	a.Identities = registry.NewIdentities()
	a.Sessions = registry.NewSessions(a.Identities)
	a.Signaling = relay.NewSignaling(a.Sessions)
	a.Transcripts = relay.NewTranscripts(a.Sessions, a.Identities, a.Signaling, speech.NewDeepgram(""))
	a.Guard = api.NewGuard(context.Background(), "test-secret", time.Hour)
	a.Records = records.NewManager(records.NewMemory(records.Seed()...))

	svc, err := openEvidence("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	a.Evidence = svc

	model := &stubModel{reply: "The witness said the car was red."}
	a.Assistant = assistant.NewBridge(a.Sessions, a.Evidence, a.Records, model)
	if archive != nil {
		a.Assistant.WithArchive(archive)
	}
	a.Router = a.New()
	return a, model
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

// login creates an identity through the API and returns it with its token
func login(t *testing.T, a *App, name string, role models.Role) models.LoginResponse {
	t.Helper()
	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/auth/login", models.LoginRequest{Name: name, Role: role}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp models.LoginResponse
	decode(t, rr, &resp)
	return resp
}

// openSession logs a judge in and opens a session hosted by them
func openSession(t *testing.T, a *App) (models.LoginResponse, models.SessionResponse) {
	t.Helper()
	judge := login(t, a, "Judge Rao", models.RoleJudge)
	rr := executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session", nil), judge.Token))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created models.SessionResponse
	decode(t, rr, &created)
	return judge, created
}

func TestUnknownRoute(t *testing.T) {
	a, _ := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a, _ := newTestApp(t, nil)
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestLoginAndVerify(t *testing.T) {
	a, _ := newTestApp(t, nil)

	resp := login(t, a, "  Alice  ", models.RoleLawyer)
	assert.Equal(t, "Alice", resp.DisplayName)
	assert.Equal(t, models.RoleLawyer, resp.Role)
	assert.Equal(t, "Welcome, Alice!", resp.Message)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	rr := executeRequest(a, withToken(jsonRequest(t, "GET", "/api/v1/auth/verify", nil), resp.Token))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var verified models.VerifyResponse
	decode(t, rr, &verified)
	assert.True(t, verified.Success)
	assert.Equal(t, resp.ID, verified.User.ID)
}

func TestLoginDefaultsToObserver(t *testing.T) {
	a, _ := newTestApp(t, nil)
	resp := login(t, a, "Visitor", "")
	assert.Equal(t, models.RoleObserver, resp.Role)
}

func TestLoginRejectsBadInput(t *testing.T) {
	a, _ := newTestApp(t, nil)

	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/auth/login", models.LoginRequest{Name: ""}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/auth/login", models.LoginRequest{Name: "Eve", Role: "Bailiff"}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("{not json"))
	rr = executeRequest(a, req)
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyRequiresToken(t *testing.T) {
	a, _ := newTestApp(t, nil)

	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/auth/verify", nil))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)

	rr = executeRequest(a, withToken(jsonRequest(t, "GET", "/api/v1/auth/verify", nil), "garbage"))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)

	// a token signed for an identity this process never created
	token, _, err := a.Guard.Issue(models.Identity{ID: "ghost", DisplayName: "Ghost", Role: models.RoleObserver})
	require.NoError(t, err)
	rr = executeRequest(a, withToken(jsonRequest(t, "GET", "/api/v1/auth/verify", nil), token))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	a, _ := newTestApp(t, nil)
	judge, created := openSession(t, a)
	assert.Equal(t, judge.ID, created.HostID)
	assert.True(t, created.Active)
	assert.Equal(t, "Meeting "+created.ID+" created successfully", created.Message)

	lawyer := login(t, a, "Alice", models.RoleLawyer)
	rr := executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session/join",
		models.JoinRequest{SessionID: strings.ToLower(created.ID)}), lawyer.Token))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var joined models.SessionResponse
	decode(t, rr, &joined)
	assert.Len(t, joined.Participants, 2)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/sessions", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var list models.SessionListResponse
	decode(t, rr, &list)
	assert.Equal(t, 1, list.Count)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/"+created.ID+"/participants", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var participants models.ParticipantsResponse
	decode(t, rr, &participants)
	assert.Equal(t, created.ID, participants.SessionID)
	assert.Len(t, participants.Participants, 2)

	for _, token := range []string{lawyer.Token, judge.Token} {
		rr = executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session/"+created.ID+"/leave", nil), token))
		checkResponseCode(t, http.StatusOK, rr.Code)
	}

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/"+created.ID, nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var summary models.SessionSummary
	decode(t, rr, &summary)
	assert.False(t, summary.Active)

	rr = executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session/join",
		models.JoinRequest{SessionID: created.ID}), lawyer.Token))
	checkResponseCode(t, http.StatusGone, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/sessions", nil))
	decode(t, rr, &list)
	assert.Zero(t, list.Count)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	a, _ := newTestApp(t, nil)
	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/session", nil))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/session/join", models.JoinRequest{SessionID: "ABC123"}))
	checkResponseCode(t, http.StatusUnauthorized, rr.Code)
}

func TestJoinUnknownSession(t *testing.T) {
	a, _ := newTestApp(t, nil)
	lawyer := login(t, a, "Alice", models.RoleLawyer)

	rr := executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session/join",
		models.JoinRequest{SessionID: "NOPE42"}), lawyer.Token))
	checkResponseCode(t, http.StatusNotFound, rr.Code)

	rr = executeRequest(a, withToken(jsonRequest(t, "POST", "/api/v1/session/join",
		models.JoinRequest{}), lawyer.Token))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestTranscriptRoute(t *testing.T) {
	a, _ := newTestApp(t, nil)
	judge, created := openSession(t, a)
	require.NoError(t, a.Sessions.AppendTranscript(created.ID, models.TranscriptEntry{
		SpeakerID: judge.ID, SpeakerName: "Judge Rao", Text: "Court is in session.",
	}))

	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/"+created.ID+"/transcript", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var resp models.TranscriptResponse
	decode(t, rr, &resp)
	assert.True(t, resp.Active)
	assert.False(t, resp.Archived)
	require.Len(t, resp.Transcript, 1)
	assert.Equal(t, "Court is in session.", resp.Transcript[0].Text)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/NOPE42/transcript", nil))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestArchivedSessionFallback(t *testing.T) {
	ended := time.Now().UTC()
	swept := models.SessionSnapshot{
		ID:         "OLD123",
		HostID:     "judge-1",
		HostName:   "Judge Rao",
		Transcript: []models.TranscriptEntry{{SpeakerID: "judge-1", Text: "Adjourned."}},
		CreatedAt:  ended.Add(-time.Hour),
		EndedAt:    &ended,
	}
	archive := &mocksdb.SessionArchiveDatabase{}
	archive.On("FindOne", mock.Anything, "OLD123").Return(&swept, nil)
	archive.On("FindOne", mock.Anything, "NOPE42").Return(nil, databases.ErrNoArchive)
	archive.On("FindOne", mock.Anything, "BROKEN").Return(nil, errors.New("mocked-error"))

	a, _ := newTestApp(t, archive)

	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/old123/transcript", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var resp models.TranscriptResponse
	decode(t, rr, &resp)
	assert.True(t, resp.Archived)
	assert.False(t, resp.Active)
	assert.Len(t, resp.Transcript, 1)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/NOPE42", nil))
	checkResponseCode(t, http.StatusNotFound, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/session/BROKEN", nil))
	checkResponseCode(t, http.StatusInternalServerError, rr.Code)
}

func TestChatOnArchivedSession(t *testing.T) {
	ended := time.Now().UTC()
	swept := models.SessionSnapshot{
		ID:         "OLD123",
		HostID:     "judge-1",
		HostName:   "Judge Rao",
		Transcript: []models.TranscriptEntry{{SpeakerID: "judge-1", SpeakerName: "Judge Rao", Text: "The car was blue."}},
		CreatedAt:  ended.Add(-time.Hour),
		EndedAt:    &ended,
	}
	archive := &mocksdb.SessionArchiveDatabase{}
	archive.On("FindOne", mock.Anything, "OLD123").Return(&swept, nil)
	archive.On("FindOne", mock.Anything, "NOPE42").Return(nil, databases.ErrNoArchive)

	a, model := newTestApp(t, archive)

	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{
		SessionID: "old123", Message: "What color was the car?",
	}))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Contains(t, model.context, "Judge Rao: The car was blue.")

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{SessionID: "NOPE42", Message: "Hi?"}))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestArchivedSessionsList(t *testing.T) {
	a, _ := newTestApp(t, nil)
	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/sessions/archived", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sessions":[],"count":0}`, rr.Body.String())

	archive := &mocksdb.SessionArchiveDatabase{}
	archive.On("List", mock.Anything, 5, 2).Return([]models.SessionSnapshot{{ID: "OLD123"}, {ID: "OLD456"}}, nil)
	a, _ = newTestApp(t, archive)
	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/sessions/archived?limit=5&page=2", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var list models.SessionListResponse
	decode(t, rr, &list)
	assert.Equal(t, 2, list.Count)
	archive.AssertExpectations(t)
}

func TestSessionReport(t *testing.T) {
	a, _ := newTestApp(t, nil)
	judge, created := openSession(t, a)
	require.NoError(t, a.Sessions.AppendTranscript(created.ID, models.TranscriptEntry{
		SpeakerID: judge.ID, SpeakerName: "Judge Rao", Text: "The defendant may be seated.",
	}))

	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/session/"+created.ID+"/report", models.ReportRequest{
		JudgeStatement:         "Case adjourned until Monday.",
		CriminalRecordsChecked: []string{"Vikram Singh", "Vikram Singh", "Nobody Known"},
	}))
	checkResponseCode(t, http.StatusOK, rr.Code)

	var body struct {
		Success  bool              `json:"success"`
		Report   string            `json:"report"`
		Sections map[string]string `json:"sections"`
	}
	decode(t, rr, &body)
	assert.True(t, body.Success)
	assert.Contains(t, body.Report, "The defendant may be seated.")
	assert.Contains(t, body.Report, "Case adjourned until Monday.")
	assert.Contains(t, body.Sections["criminal_records"], "Vikram Singh")
	assert.Contains(t, body.Sections["ai_analysis"], "A short hearing.")

	req, _ := http.NewRequest("POST", "/api/v1/session/"+created.ID+"/report", nil)
	rr = executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/session/NOPE42/report", models.ReportRequest{}))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestChatHandler(t *testing.T) {
	a, model := newTestApp(t, nil)
	judge, created := openSession(t, a)
	require.NoError(t, a.Sessions.AppendTranscript(created.ID, models.TranscriptEntry{
		SpeakerID: judge.ID, SpeakerName: "Judge Rao", Text: "Describe the car.",
	}))

	rr := executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{
		SessionID: created.ID, Message: "What color was the car?",
	}))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var resp models.ChatResponse
	decode(t, rr, &resp)
	assert.Equal(t, model.reply, resp.Response)
	assert.Equal(t, "What color was the car?", model.question)
	assert.Contains(t, model.context, "Describe the car.")

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{SessionID: created.ID}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{SessionID: "NOPE42", Message: "Hi?"}))
	checkResponseCode(t, http.StatusNotFound, rr.Code)

	model.err = errors.New("mocked-error")
	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/chat", models.ChatRequest{SessionID: created.ID, Message: "Hi?"}))
	checkResponseCode(t, http.StatusBadGateway, rr.Code)
}

func TestRecordsRoutes(t *testing.T) {
	a, _ := newTestApp(t, nil)

	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/records", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var all models.RecordsResponse
	decode(t, rr, &all)
	assert.Equal(t, len(records.Seed()), all.Total)
	assert.Positive(t, all.Flagged)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/records/flagged", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var flagged models.FlaggedRecordsResponse
	decode(t, rr, &flagged)
	assert.Equal(t, all.Flagged, flagged.Count)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/records/search/vikram", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var found models.RecordSearchResponse
	decode(t, rr, &found)
	assert.True(t, found.Found)
	assert.Equal(t, "Vikram Singh", found.Record.Name)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/records/search/nobody", nil))
	checkResponseCode(t, http.StatusNotFound, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/records", models.CriminalRecord{
		Name: "Meera Nair", Status: models.RecordClean, Crime: "None", Year: "2024",
	}))
	checkResponseCode(t, http.StatusCreated, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/records", models.CriminalRecord{
		Name: "Meera Nair", Status: "Unknown", Crime: "None", Year: "2024",
	}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/records", nil))
	decode(t, rr, &all)
	assert.Equal(t, len(records.Seed())+1, all.Total)
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile(uploadField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req, err := http.NewRequest("POST", "/api/v1/evidence", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestEvidenceRoutes(t *testing.T) {
	a, _ := newTestApp(t, nil)

	rr := executeRequest(a, uploadRequest(t, map[string]string{
		"witness.txt": "The witness saw a red sedan leave the parking lot at midnight.",
	}))
	checkResponseCode(t, http.StatusCreated, rr.Code)
	var uploaded models.EvidenceUploadResponse
	decode(t, rr, &uploaded)
	require.Len(t, uploaded.Files, 1)
	label := uploaded.Files[0].Label

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/evidence", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var list models.EvidenceListResponse
	decode(t, rr, &list)
	assert.Equal(t, 1, list.Count)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/evidence/search", models.EvidenceSearchRequest{Query: "red sedan"}))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var results models.EvidenceSearchResponse
	decode(t, rr, &results)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, label, results.Results[0].SourceLabel)

	rr = executeRequest(a, jsonRequest(t, "POST", "/api/v1/evidence/search", models.EvidenceSearchRequest{}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/evidence/"+label+"/download", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), label)
	assert.Contains(t, rr.Body.String(), "red sedan")

	rr = executeRequest(a, jsonRequest(t, "DELETE", "/api/v1/evidence/"+label, nil))
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, jsonRequest(t, "GET", "/api/v1/evidence/"+label+"/download", nil))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
	rr = executeRequest(a, jsonRequest(t, "DELETE", "/api/v1/evidence/"+label, nil))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestUploadEvidenceRejectsEmptyForm(t *testing.T) {
	a, _ := newTestApp(t, nil)

	rr := executeRequest(a, uploadRequest(t, map[string]string{}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, uploadRequest(t, map[string]string{"empty.txt": ""}))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsRoute(t *testing.T) {
	a, _ := newTestApp(t, nil)
	executeRequest(a, jsonRequest(t, "GET", "/api/v1/records", nil))
	executeRequest(a, jsonRequest(t, "GET", "/api/v1/records/search/nobody", nil))

	rr := executeRequest(a, jsonRequest(t, "GET", "/api/v1/metrics?limit=1", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var body struct {
		TotalRequests int64                    `json:"totalRequests"`
		TotalErrors   int64                    `json:"totalErrors"`
		Routes        []map[string]interface{} `json:"routes"`
	}
	decode(t, rr, &body)
	assert.GreaterOrEqual(t, body.TotalRequests, int64(2))
	assert.GreaterOrEqual(t, body.TotalErrors, int64(1))
	assert.Len(t, body.Routes, 1)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(registry.ErrValidation))
	assert.Equal(t, http.StatusNotFound, statusFor(registry.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, statusFor(databases.ErrNoArchive))
	assert.Equal(t, http.StatusGone, statusFor(registry.ErrInactive))
	assert.Equal(t, http.StatusUnauthorized, statusFor(api.ErrUnauthorized))
	assert.Equal(t, http.StatusBadGateway, statusFor(assistant.ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestSessionDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	assert.Equal(t, "1h30m0s", sessionDuration(models.SessionSnapshot{CreatedAt: start, EndedAt: &end}, start))
	assert.Equal(t, "5m0s", sessionDuration(models.SessionSnapshot{CreatedAt: start}, start.Add(5*time.Minute)))
	assert.Empty(t, sessionDuration(models.SessionSnapshot{}, start))
}
