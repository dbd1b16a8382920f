package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/databases"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// EvidenceResults is how many evidence chunks are added to a question's context
const EvidenceResults = 3

var recordKeywords = []string{
	"criminal", "record", "crime", "flagged", "history", "conviction", "assault", "theft", "fraud",
}

// TranscriptSource returns a session's transcript
type TranscriptSource interface {
	Transcript(sessionID string) ([]models.TranscriptEntry, error)
}

// ArchiveSource finds sessions that have been swept from the registry
type ArchiveSource interface {
	FindOne(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
}

// EvidenceSearcher finds the evidence passages most relevant to a query
type EvidenceSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.EvidenceResult, error)
}

// RecordsSource renders the criminal records database as plain text
type RecordsSource interface {
	Text(ctx context.Context) (string, error)
}

// Bridge assembles a session's context and forwards questions to the model
type Bridge struct {
	transcripts TranscriptSource
	evidence    EvidenceSearcher
	records     RecordsSource
	client      Client
	archive     ArchiveSource
}

// NewBridge creates a bridge. evidence and records may be nil.
func NewBridge(transcripts TranscriptSource, evidence EvidenceSearcher, records RecordsSource, client Client) *Bridge {
	return &Bridge{transcripts: transcripts, evidence: evidence, records: records, client: client}
}

// WithArchive lets questions about swept sessions be answered from the archive
func (b *Bridge) WithArchive(archive ArchiveSource) *Bridge {
	b.archive = archive
	return b
}

// MentionsRecords reports whether a question asks about criminal records
func MentionsRecords(question string) bool {
	q := strings.ToLower(question)
	return lo.SomeBy(recordKeywords, func(k string) bool { return strings.Contains(q, k) })
}

// BuildContext renders the transcript as "[timestamp] speaker: text" lines
// followed by any evidence passages and records text.
func BuildContext(transcript []models.TranscriptEntry, evidence []models.EvidenceResult, records string) string {
	lines := lo.Map(transcript, func(e models.TranscriptEntry, _ int) string {
		return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format(time.RFC3339), e.SpeakerName, e.Text)
	})

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	if len(evidence) > 0 {
		b.WriteString("\n\nRELEVANT EVIDENCE:\n")
		for i, r := range evidence {
			fmt.Fprintf(&b, "\n[Evidence %d from %s]:\n%s\n", i+1, r.SourceLabel, r.Content)
		}
	}
	if records != "" {
		b.WriteString("\n\n")
		b.WriteString(records)
	}
	return b.String()
}

// Answer asks the model a question about a session. Evidence and records
// lookups are best effort; a model failure is returned wrapped in
// ErrUnavailable.
func (b *Bridge) Answer(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", registry.ErrValidation)
	}
	transcript, err := b.transcript(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var evidence []models.EvidenceResult
	if b.evidence != nil {
		evidence, err = b.evidence.Search(ctx, question, EvidenceResults)
		if err != nil {
			zap.S().Warnw("evidence search failed, answering without evidence",
				"meeting_id", sessionID, "error", err)
			evidence = nil
		}
	}

	var records string
	if b.records != nil && MentionsRecords(question) {
		records, err = b.records.Text(ctx)
		if err != nil {
			zap.S().Warnw("criminal records unavailable, answering without them",
				"meeting_id", sessionID, "error", err)
			records = ""
		}
	}

	answer, err := b.client.Ask(ctx, question, BuildContext(transcript, evidence, records))
	if err != nil {
		zap.S().Errorw("assistant failed to answer", "meeting_id", sessionID, "error", err)
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}
	zap.S().Infow("assistant answered question",
		"meeting_id", sessionID,
		"transcript_entries", len(transcript),
		"evidence_passages", len(evidence))
	return answer, nil
}

// transcript reads the live transcript, falling back to the archive once the
// session has been swept
func (b *Bridge) transcript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	entries, err := b.transcripts.Transcript(sessionID)
	if err == nil || !errors.Is(err, registry.ErrNotFound) || b.archive == nil {
		return entries, err
	}

	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	archived, archiveErr := b.archive.FindOne(ctx, registry.Normalize(sessionID))
	if archiveErr != nil {
		if errors.Is(archiveErr, databases.ErrNoArchive) {
			return nil, err
		}
		return nil, archiveErr
	}
	return archived.Transcript, nil
}

// Summarize produces the executive summary used in session reports
func (b *Bridge) Summarize(ctx context.Context, material string) (string, error) {
	return b.client.Summarize(ctx, material)
}
