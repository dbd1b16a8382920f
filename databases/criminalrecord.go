package databases

// go generate: mockery --name CriminalRecordDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/court-session-api/models"
)

const criminalRecordName = "criminalrecords"

// CriminalRecordDatabase contains the methods to use with the criminal record database
type CriminalRecordDatabase interface {
	All(ctx context.Context) ([]models.CriminalRecord, error)
	Add(ctx context.Context, record models.CriminalRecord) error
	Count(ctx context.Context) (int64, error)
}

type criminalRecordDatabase struct {
	db DatabaseHelper
}

// NewCriminalRecordDatabase initializes a new instance of criminal record database with the provided db connection
func NewCriminalRecordDatabase(db DatabaseHelper) CriminalRecordDatabase {
	return &criminalRecordDatabase{
		db: db,
	}
}

// All returns every record in insertion order
func (c *criminalRecordDatabase) All(ctx context.Context) ([]models.CriminalRecord, error) {
	records := []models.CriminalRecord{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	curr, err := c.db.Collection(criminalRecordName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	if err := curr.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *criminalRecordDatabase) Add(ctx context.Context, record models.CriminalRecord) error {
	_, err := c.db.Collection(criminalRecordName).InsertOne(ctx, record)
	return err
}

// Count returns how many records are stored without loading them
func (c *criminalRecordDatabase) Count(ctx context.Context) (int64, error) {
	return c.db.Collection(criminalRecordName).CountDocuments(ctx, bson.M{})
}
