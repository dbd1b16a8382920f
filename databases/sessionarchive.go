package databases

// go generate: mockery --name SessionArchiveDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/court-session-api/models"
)

const sessionArchiveName = "sessionarchives"

// ErrNoArchive is returned when no archived session matches
var ErrNoArchive = errors.New("session not archived")

// SessionArchiveDatabase contains the methods to use with the session archive database
type SessionArchiveDatabase interface {
	Save(ctx context.Context, session models.SessionSnapshot) error
	FindOne(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
	List(ctx context.Context, limit, page int) ([]models.SessionSnapshot, error)
}

type sessionArchiveDatabase struct {
	db DatabaseHelper
}

// NewSessionArchiveDatabase initializes a new instance of session archive database with the provided db connection
func NewSessionArchiveDatabase(db DatabaseHelper) SessionArchiveDatabase {
	return &sessionArchiveDatabase{
		db: db,
	}
}

// Save upserts the final snapshot of a session, keyed by its id
func (s *sessionArchiveDatabase) Save(ctx context.Context, session models.SessionSnapshot) error {
	err := s.db.Collection(sessionArchiveName).
		ReplaceOne(ctx, bson.M{"_id": session.ID}, session, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("archive session %s: %w", session.ID, err)
	}
	return nil
}

func (s *sessionArchiveDatabase) FindOne(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	session := &models.SessionSnapshot{}
	err := s.db.Collection(sessionArchiveName).FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNoArchive)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// List returns archived sessions, newest first
func (s *sessionArchiveDatabase) List(ctx context.Context, limit, page int) ([]models.SessionSnapshot, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	opts.SetProjection(bson.M{"transcript": 0})

	sessions := []models.SessionSnapshot{}
	curr, err := s.db.Collection(sessionArchiveName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	if err := curr.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
