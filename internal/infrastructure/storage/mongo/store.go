package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nutrisnap/backend/internal/domain"
)

// DefaultCollection holds tracker entries
const DefaultCollection = "tracker_entries"

// trackerDocument mirrors the stored document. Legacy documents carry ObjectID ids,
// string timestamps and numeric or string calories, so those fields stay loose.
type trackerDocument struct {
	ID        interface{}       `bson:"_id"`
	Username  string            `bson:"username"`
	FoodItem  string            `bson:"food_item"`
	Quantity  interface{}       `bson:"quantity"`
	Calories  interface{}       `bson:"calories"`
	Nutrients map[string]string `bson:"nutrients"`
	Date      string            `bson:"date"`
	MealType  string            `bson:"meal_type"`
	ImageData string            `bson:"img_data,omitempty"`
	Timestamp interface{}       `bson:"timestamp"`
}

// Store is a MongoDB-backed tracker repository
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ domain.TrackerRepository = (*Store)(nil)

// Connect opens a client for uri and returns a store over database.collection
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index creation failed: %w", err)
	}

	return &Store{client: client, collection: coll}, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Insert stores a new entry. Reusing an existing id is an invalid request.
func (s *Store) Insert(ctx context.Context, entry *domain.TrackerEntry) error {
	if entry == nil || entry.ID == "" || entry.Owner == "" {
		return domain.ErrInvalidRequest
	}
	_, err := s.collection.InsertOne(ctx, toDocument(entry))
	return insertError(entry.ID, err)
}

// Find returns the owner's entries newest first
func (s *Store) Find(ctx context.Context, owner string, filter domain.EntryFilter) ([]domain.TrackerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, buildFilter(owner, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("querying tracker entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []trackerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding tracker entries: %w", err)
	}

	entries := make([]domain.TrackerEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, fromDocument(doc))
	}
	return entries, nil
}

// Delete removes an entry only when it belongs to owner
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": idFilter(id), "username": owner})
	if err != nil {
		return fmt.Errorf("deleting tracker entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// buildFilter builds the owner-scoped query for an entry filter
func buildFilter(owner string, filter domain.EntryFilter) bson.M {
	query := bson.M{"username": owner}

	dateRange := bson.M{}
	if filter.DateFrom != "" {
		dateRange["$gte"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		dateRange["$lte"] = filter.DateTo
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	return query
}

// idFilter matches both uuid string ids and legacy ObjectIDs
func idFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}

func toDocument(e *domain.TrackerEntry) trackerDocument {
	nutrients := make(map[string]string, len(e.Nutrients))
	for k, v := range e.Nutrients {
		nutrients[k] = string(v)
	}
	return trackerDocument{
		ID:        e.ID,
		Username:  e.Owner,
		FoodItem:  string(e.FoodItem),
		Quantity:  e.Quantity,
		Calories:  e.Calories,
		Nutrients: nutrients,
		Date:      e.Date,
		MealType:  e.MealType,
		ImageData: e.ImageRef,
		Timestamp: primitive.NewDateTimeFromTime(e.Timestamp),
	}
}

func fromDocument(d trackerDocument) domain.TrackerEntry {
	nutrients := make(map[string]domain.NutrientValue, len(d.Nutrients))
	for k, v := range d.Nutrients {
		nutrients[k] = domain.NutrientValue(v)
	}
	return domain.TrackerEntry{
		ID:        looseString(d.ID),
		Owner:     d.Username,
		FoodItem:  domain.FoodLabel(d.FoodItem),
		Quantity:  looseString(d.Quantity),
		Calories:  looseString(d.Calories),
		Nutrients: nutrients,
		Date:      d.Date,
		MealType:  d.MealType,
		ImageRef:  d.ImageData,
		Timestamp: looseTime(d.Timestamp),
	}
}

// looseString renders a stored scalar the way it would have been submitted
func looseString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case primitive.ObjectID:
		return val.Hex()
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

var legacyTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// looseTime accepts BSON dates and the string timestamps of legacy documents
func looseTime(v interface{}) time.Time {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case time.Time:
		return val.UTC()
	case string:
		for _, layout := range legacyTimestampLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// insertError maps driver insert failures onto domain errors
func insertError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: entry %s already exists", domain.ErrInvalidRequest, id)
	default:
		return fmt.Errorf("inserting tracker entry: %w", err)
	}
}
