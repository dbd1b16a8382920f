package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
)

// Config holds the project config values
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	BaseURL      string `envconfig:"BASE_URL" default:"/api/v1"`
	Environment  string `envconfig:"ENVIRONMENT" default:"local"`
	URL          string `envconfig:"DB_URI"`
	DatabaseName string `envconfig:"DB_NAME" default:"courtsessions"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"12h"`

	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY"`
	AssistantAPIKey  string `envconfig:"ASSISTANT_API_KEY"`
	AssistantBaseURL string `envconfig:"ASSISTANT_BASE_URL" default:"https://api.groq.com/openai/v1"`
	AssistantModel   string `envconfig:"ASSISTANT_MODEL" default:"llama-3.3-70b-versatile"`

	// EvidencePath holds the evidence index and blob store; empty keeps both in memory
	EvidencePath    string        `envconfig:"EVIDENCE_PATH"`
	CleanupSchedule string        `envconfig:"CLEANUP_SCHEDULE" default:"@every 15m"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// New sets up all config related services. A .env file, when present, is
// loaded before the environment is read.
func New() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	logger, err := setLogger(c.Environment)
	if err != nil {
		return nil, err
	}
	logger.Sugar().Debugw("configuration loaded",
		"environment", c.Environment,
		"port", c.Port,
		"mongo", c.URL != "",
		"evidence_path", c.EvidencePath)
	return &c, nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Debugw(message, "status", httpStatusCode, "error", err)
	}

	resp := models.ErrorResponse{Error: message}
	if err != nil {
		resp.Error = fmt.Sprintf("%s: %v", message, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
