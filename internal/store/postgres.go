package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres is an alternative store backend keeping each collection as a table
// of JSONB documents, so records stay as schema-less as in the Mongo backend.
type Postgres struct {
	db *sql.DB
}

// tables whitelists collection-to-table mapping; collections are fixed, so
// table names never come from request data.
var tables = map[string]string{
	Users:       "users",
	Courses:     "courses",
	Students:    "students",
	Attendances: "attendances",
}

// NewPostgres opens a Postgres connection with sane pool defaults and creates
// the document tables when missing.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func migrate(db *sql.DB) error {
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id  TEXT PRIMARY KEY,
				doc JSONB NOT NULL
			)
		`, table)); err != nil {
			return err
		}
	}
	_, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users ((doc->>'email'))
	`)
	return err
}

func (p *Postgres) SaveUser(ctx context.Context, user Document) (SaveUserOutcome, error) {
	email, _ := user["email"].(string)

	doc := stamped(user)
	id := uuid.NewString()
	doc["_id"] = id
	payload, err := json.Marshal(doc)
	if err != nil {
		return SaveUserOutcome{}, err
	}

	// Single atomic statement for the insert path; ON CONFLICT leaves an
	// existing user untouched.
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, doc)
		VALUES ($1, $2)
		ON CONFLICT ((doc->>'email')) DO NOTHING
	`, id, payload)
	if err != nil {
		return SaveUserOutcome{}, err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return SaveUserOutcome{Result: &UpdateResult{
			Acknowledged:  true,
			UpsertedCount: 1,
			UpsertedID:    id,
		}}, nil
	}

	existing, err := p.FindUser(ctx, email)
	if err != nil {
		return SaveUserOutcome{}, err
	}
	if existing == nil {
		return SaveUserOutcome{}, errors.New("store: user vanished during save")
	}

	if status, _ := user["status"].(string); status == StatusRequested {
		res, err := p.patchUser(ctx, email, Document{"status": status})
		if err != nil {
			return SaveUserOutcome{}, err
		}
		return SaveUserOutcome{Result: &res}, nil
	}

	return SaveUserOutcome{Existing: existing}, nil
}

func (p *Postgres) InsertOne(ctx context.Context, collection string, doc Document) (InsertOneResult, error) {
	table, err := tableFor(collection)
	if err != nil {
		return InsertOneResult{}, err
	}

	stored := cloneDoc(doc)
	id := uuid.NewString()
	stored["_id"] = id
	payload, err := json.Marshal(stored)
	if err != nil {
		return InsertOneResult{}, err
	}

	if _, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, table), id, payload); err != nil {
		return InsertOneResult{}, err
	}
	return InsertOneResult{Acknowledged: true, InsertedID: id}, nil
}

func (p *Postgres) InsertMany(ctx context.Context, collection string, docs []Document) (InsertManyResult, error) {
	if len(docs) == 0 {
		return InsertManyResult{}, ErrEmptyBatch
	}
	table, err := tableFor(collection)
	if err != nil {
		return InsertManyResult{}, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertManyResult{}, err
	}
	defer tx.Rollback()

	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		stored := cloneDoc(doc)
		id := uuid.NewString()
		stored["_id"] = id
		payload, err := json.Marshal(stored)
		if err != nil {
			return InsertManyResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, table), id, payload); err != nil {
			return InsertManyResult{}, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return InsertManyResult{}, err
	}
	return InsertManyResult{Acknowledged: true, InsertedIDs: ids}, nil
}

func (p *Postgres) FindUser(ctx context.Context, email string) (Document, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT doc FROM users WHERE doc->>'email' = $1`, email).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) FindAll(ctx context.Context, collection string) ([]Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateUser(ctx context.Context, email string, fields Document) (UpdateResult, error) {
	return p.patchUser(ctx, email, fields)
}

// patchUser merges fields plus a fresh timestamp into the stored document.
func (p *Postgres) patchUser(ctx context.Context, email string, fields Document) (UpdateResult, error) {
	payload, err := json.Marshal(stamped(fields))
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE users SET doc = doc || $2::jsonb WHERE doc->>'email' = $1
	`, email, payload)
	if err != nil {
		return UpdateResult{}, err
	}
	n, _ := res.RowsAffected()
	return UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close(ctx context.Context) error {
	return p.db.Close()
}

func tableFor(collection string) (string, error) {
	table, ok := tables[collection]
	if !ok {
		return "", fmt.Errorf("store: unknown collection %q", collection)
	}
	return table, nil
}
