package store

import (
	"context"
	"errors"
	"time"
)

// Collection names. The store keeps four named collections of schema-less
// records; nothing enforces referential integrity between them.
const (
	Users       = "users"
	Courses     = "courses"
	Students    = "students"
	Attendances = "attendances"
)

// StatusRequested is the one user status with special upsert semantics: a
// repeat save for an existing user only goes through when it requests this
// transition.
const StatusRequested = "requested"

// ErrEmptyBatch is returned by InsertMany for an empty document slice.
var ErrEmptyBatch = errors.New("store: batch must contain at least one document")

// Document is a schema-less record as it travels between HTTP bodies and the
// store. Backends are free to add an "_id" field on insert.
type Document = map[string]any

// InsertOneResult reports a single-document insert.
type InsertOneResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

// InsertManyResult reports a batch insert. Batches are all-or-nothing: a
// failure anywhere rejects the whole batch.
type InsertManyResult struct {
	Acknowledged bool  `json:"acknowledged"`
	InsertedIDs  []any `json:"insertedIds"`
}

// UpdateResult reports an update or upsert.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}

// SaveUserOutcome is the result of the conditional user upsert. Exactly one
// field is set: Existing when the user was already stored and the save was a
// no-op, Result when a write happened (insert or "requested" transition).
type SaveUserOutcome struct {
	Existing Document
	Result   *UpdateResult
}

// Store is the persistence gateway over the four record collections.
// Implementations must make SaveUser safe against concurrent saves for the
// same email: the insert path has to be a single atomic operation, not a
// check followed by a write.
type Store interface {
	// SaveUser conditionally upserts the user keyed by user["email"]:
	// absent → insert with a fresh timestamp; present with incoming status
	// "requested" → update only status and timestamp; present otherwise →
	// no write, the stored document is returned unchanged.
	SaveUser(ctx context.Context, user Document) (SaveUserOutcome, error)

	// InsertOne stores a single document in the named collection.
	InsertOne(ctx context.Context, collection string, doc Document) (InsertOneResult, error)

	// InsertMany stores a batch of documents in the named collection,
	// all-or-nothing.
	InsertMany(ctx context.Context, collection string, docs []Document) (InsertManyResult, error)

	// FindUser returns the user with the given email, or nil when absent.
	FindUser(ctx context.Context, email string) (Document, error)

	// FindAll returns every document in the named collection.
	FindAll(ctx context.Context, collection string) ([]Document, error)

	// UpdateUser merges the given fields into the user keyed by email and
	// re-stamps the document with a fresh write timestamp.
	UpdateUser(ctx context.Context, email string, fields Document) (UpdateResult, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// timestampField is the last-write stamp every user write carries, stored as
// milliseconds since the epoch for compatibility with existing records.
const timestampField = "timestamp"

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// stamped returns a copy of fields with a fresh write timestamp.
func stamped(fields Document) Document {
	out := make(Document, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[timestampField] = nowMillis()
	return out
}

