package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the production store backend. Each named collection maps straight
// to a MongoDB collection of the configured database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB with Server API v1 and verifies the connection
// with a ping.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

// SaveUser implements the conditional upsert with a single atomic upsert on
// the insert path: $setOnInsert either creates the full document or leaves an
// existing one untouched, so two concurrent first saves cannot both insert.
func (m *Mongo) SaveUser(ctx context.Context, user Document) (SaveUserOutcome, error) {
	email, _ := user["email"].(string)
	filter := bson.M{"email": email}
	coll := m.db.Collection(Users)

	res, err := coll.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": bson.M(stamped(user))},
		options.Update().SetUpsert(true))
	if err != nil {
		return SaveUserOutcome{}, err
	}
	if res.UpsertedCount > 0 {
		return SaveUserOutcome{Result: updateResult(res)}, nil
	}

	var existing bson.M
	if err := coll.FindOne(ctx, filter).Decode(&existing); err != nil {
		return SaveUserOutcome{}, err
	}

	if status, _ := user["status"].(string); status == StatusRequested {
		res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"status":       status,
			timestampField: nowMillis(),
		}})
		if err != nil {
			return SaveUserOutcome{}, err
		}
		return SaveUserOutcome{Result: updateResult(res)}, nil
	}

	return SaveUserOutcome{Existing: Document(existing)}, nil
}

func (m *Mongo) InsertOne(ctx context.Context, collection string, doc Document) (InsertOneResult, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return InsertOneResult{}, err
	}
	return InsertOneResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (m *Mongo) InsertMany(ctx context.Context, collection string, docs []Document) (InsertManyResult, error) {
	if len(docs) == 0 {
		return InsertManyResult{}, ErrEmptyBatch
	}
	batch := make([]any, len(docs))
	for i, doc := range docs {
		batch[i] = bson.M(doc)
	}
	res, err := m.db.Collection(collection).InsertMany(ctx, batch)
	if err != nil {
		return InsertManyResult{}, err
	}
	return InsertManyResult{Acknowledged: true, InsertedIDs: res.InsertedIDs}, nil
}

func (m *Mongo) FindUser(ctx context.Context, email string) (Document, error) {
	var doc bson.M
	err := m.db.Collection(Users).FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Document(doc), nil
}

func (m *Mongo) FindAll(ctx context.Context, collection string) ([]Document, error) {
	cursor, err := m.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(raw))
	for _, doc := range raw {
		out = append(out, Document(doc))
	}
	return out, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, email string, fields Document) (UpdateResult, error) {
	res, err := m.db.Collection(Users).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M(stamped(fields))})
	if err != nil {
		return UpdateResult{}, err
	}
	return *updateResult(res), nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func updateResult(res *mongo.UpdateResult) *UpdateResult {
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}
