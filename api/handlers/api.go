package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/api/scheduler"
	"github.com/linesmerrill/court-session-api/assistant"
	"github.com/linesmerrill/court-session-api/config"
	"github.com/linesmerrill/court-session-api/databases"
	"github.com/linesmerrill/court-session-api/evidence"
	"github.com/linesmerrill/court-session-api/records"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/relay"
	"github.com/linesmerrill/court-session-api/speech"
)

const defaultBaseURL = "/api/v1"

// App stores the router and every long lived component, so they can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	Identities  *registry.Identities
	Sessions    *registry.Sessions
	Signaling   *relay.Signaling
	Transcripts *relay.Transcripts
	Guard       *api.Guard
	Evidence    *evidence.Service
	Records     *records.Manager
	Assistant   *assistant.Bridge
	// Archive is nil when no database is configured
	Archive   databases.SessionArchiveDatabase
	Metrics   *api.MetricsCollector
	Scheduler *scheduler.Scheduler

	client databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}

	au := Auth{Identities: a.Identities, Guard: a.Guard}
	s := Session{
		Sessions:    a.Sessions,
		Identities:  a.Identities,
		Signaling:   a.Signaling,
		Transcripts: a.Transcripts,
		Archive:     a.Archive,
		Evidence:    a.Evidence,
		Records:     a.Records,
	}
	c := Chat{Metrics: a.Metrics}
	if a.Assistant != nil {
		s.Summarizer = a.Assistant
		c.Assistant = a.Assistant
	}
	e := Evidence{Service: a.Evidence}
	rc := Records{Manager: a.Records}
	ws := Sockets{Sessions: a.Sessions, Signaling: a.Signaling, Transcripts: a.Transcripts, Metrics: a.Metrics}
	m := MetricsHandler{Collector: a.Metrics}
	authed := a.Guard.Middleware

	// healthchex
	r := api.New()
	r.Use(api.MetricsMiddleware(a.Metrics))
	if a.Config.RequestTimeout > 0 {
		r.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))
	}

	base := a.Config.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	apiCreate := r.PathPrefix(base).Subrouter()

	apiCreate.HandleFunc("/auth/login", au.LoginHandler).Methods("POST")
	apiCreate.Handle("/auth/verify", authed(http.HandlerFunc(au.VerifyHandler))).Methods("GET")

	apiCreate.Handle("/session", authed(http.HandlerFunc(s.CreateSessionHandler))).Methods("POST")
	apiCreate.Handle("/session/join", authed(http.HandlerFunc(s.JoinSessionHandler))).Methods("POST")
	apiCreate.HandleFunc("/sessions", s.ActiveSessionsHandler).Methods("GET")
	apiCreate.HandleFunc("/sessions/archived", s.ArchivedSessionsHandler).Methods("GET")
	apiCreate.HandleFunc("/session/{session_id}", s.SessionHandler).Methods("GET")
	apiCreate.HandleFunc("/session/{session_id}/participants", s.ParticipantsHandler).Methods("GET")
	apiCreate.HandleFunc("/session/{session_id}/transcript", s.TranscriptHandler).Methods("GET")
	apiCreate.Handle("/session/{session_id}/leave", authed(http.HandlerFunc(s.LeaveSessionHandler))).Methods("POST")
	apiCreate.HandleFunc("/session/{session_id}/report", s.SessionReportHandler).Methods("POST")

	apiCreate.HandleFunc("/chat", c.ChatHandler).Methods("POST")

	apiCreate.HandleFunc("/evidence", e.UploadEvidenceHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence", e.EvidenceListHandler).Methods("GET")
	apiCreate.HandleFunc("/evidence/search", e.SearchEvidenceHandler).Methods("POST")
	apiCreate.HandleFunc("/evidence/{label}/download", e.DownloadEvidenceHandler).Methods("GET")
	apiCreate.HandleFunc("/evidence/{label}", e.DeleteEvidenceHandler).Methods("DELETE")

	apiCreate.HandleFunc("/records", rc.RecordsHandler).Methods("GET")
	apiCreate.HandleFunc("/records", rc.CreateRecordHandler).Methods("POST")
	apiCreate.HandleFunc("/records/flagged", rc.FlaggedRecordsHandler).Methods("GET")
	apiCreate.HandleFunc("/records/search/{name}", rc.SearchRecordHandler).Methods("GET")

	apiCreate.HandleFunc("/metrics", m.MetricsSummaryHandler).Methods("GET")

	sockets := r.PathPrefix("/ws").Subrouter()
	sockets.HandleFunc("/transcribe/{session_id}/{participant_id}", ws.TranscribeSocketHandler)
	sockets.HandleFunc("/signaling/{session_id}/{participant_id}", ws.SignalingSocketHandler)
	sockets.HandleFunc("/chat", c.ChatSocketHandler)

	return r
}

// Initialize is invoked by main to connect with the collaborators and create a router
func (a *App) Initialize(ctx context.Context) error {
	a.Identities = registry.NewIdentities()
	a.Sessions = registry.NewSessions(a.Identities)
	a.Signaling = relay.NewSignaling(a.Sessions)

	secret := a.Config.JWTSecret
	if secret == "" {
		// tokens then only verify against this process
		secret = uuid.New().String()
		zap.S().Warn("JWT_SECRET is not set, using a random signing secret")
	}
	a.Guard = api.NewGuard(ctx, secret, a.Config.TokenTTL)

	var recordStore records.Store = records.NewMemory()
	if a.Config.URL != "" {
		client, err := databases.NewClient(ctx, &a.Config)
		if err != nil {
			// if we fail to create a new database client, then kill the pod
			zap.S().With(err).Error("failed to create new client")
			return err
		}
		if err := client.Ping(ctx); err != nil {
			// if we fail to connect to the database, then kill the pod
			zap.S().With(err).Error("failed to connect to database")
			return err
		}
		a.client = client
		dbHelper := databases.NewDatabase(&a.Config, client)
		a.Archive = databases.NewSessionArchiveDatabase(dbHelper)
		recordStore = databases.NewCriminalRecordDatabase(dbHelper)
		zap.S().Info("court-session-api has connected to the database")
	} else {
		zap.S().Warn("DB_URI is not set, criminal records are kept in memory and ended sessions are not archived")
	}

	a.Records = records.NewManager(recordStore)
	if err := a.Records.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("seed criminal records: %w", err)
	}

	var err error
	if a.Evidence, err = openEvidence(a.Config.EvidencePath); err != nil {
		return err
	}

	a.Transcripts = relay.NewTranscripts(a.Sessions, a.Identities, a.Signaling, speech.NewDeepgram(a.Config.DeepgramAPIKey))
	llm := assistant.NewOpenAI(a.Config.AssistantAPIKey, a.Config.AssistantBaseURL, a.Config.AssistantModel)
	a.Assistant = assistant.NewBridge(a.Sessions, a.Evidence, a.Records, llm)
	if a.Archive != nil {
		a.Assistant.WithArchive(a.Archive)
	}

	a.Scheduler = scheduler.NewScheduler(a.Config.CleanupSchedule, a.Sessions, a.Signaling, a.Archive)
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close stops the scheduler and releases the evidence store and the database
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	var errs []error
	if a.Evidence != nil {
		errs = append(errs, a.Evidence.Close())
	}
	if a.client != nil {
		errs = append(errs, a.client.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// openEvidence opens the evidence index and blob store under path, or in
// memory when path is empty
func openEvidence(path string) (*evidence.Service, error) {
	indexPath, storePath := "", ""
	if path != "" {
		indexPath = filepath.Join(path, "index")
		storePath = filepath.Join(path, "blobs")
	}
	index, err := evidence.OpenIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open evidence index: %w", err)
	}
	store, err := evidence.OpenStore(storePath)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("open evidence store: %w", err)
	}
	return evidence.NewService(store, index), nil
}
