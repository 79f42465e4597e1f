package connection

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client is the part of a deployment the language server talks to.
type Client interface {
	Ping(ctx context.Context) error
	ListDatabaseNames(ctx context.Context) ([]string, error)
	ListCollectionNames(ctx context.Context, database string) ([]string, error)
	// SampleDocuments returns up to limit documents of a collection.
	SampleDocuments(ctx context.Context, database, collection string, limit int64) ([]bson.Raw, error)
	Disconnect(ctx context.Context) error
}

// Dialer opens a Client for a validated connection string.
type Dialer func(ctx context.Context, uri string) (Client, error)

const appName = "mdb-lsp"

// DialMongo connects with the official driver.
func DialMongo(ctx context.Context, uri string) (Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(appName))
	if err != nil {
		return nil, err
	}
	return &mongoClient{client: c}, nil
}

type mongoClient struct {
	client *mongo.Client
}

func (m *mongoClient) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *mongoClient) ListDatabaseNames(ctx context.Context) ([]string, error) {
	return m.client.ListDatabaseNames(ctx, bson.D{}, options.ListDatabases().SetNameOnly(true))
}

func (m *mongoClient) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	return m.client.Database(database).ListCollectionNames(ctx, bson.D{})
}

func (m *mongoClient) SampleDocuments(ctx context.Context, database, collection string, limit int64) ([]bson.Raw, error) {
	cur, err := m.client.Database(database).Collection(collection).
		Find(ctx, bson.D{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	for cur.Next(ctx) {
		doc := make(bson.Raw, len(cur.Current))
		copy(doc, cur.Current)
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}

func (m *mongoClient) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
