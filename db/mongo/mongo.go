package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is the connection to a MongoDB sync mirror.
type MongoDB struct {
	Client   *mongo.Client
	URL      string
	Database string
}

func NewMongoDB(url, database string) *MongoDB {
	return &MongoDB{URL: url, Database: database}
}

func (m *MongoDB) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.URL))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}
	m.Client = client
	return nil
}

func (m *MongoDB) Disconnect() error {
	if m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) DB() *mongo.Database {
	return m.Client.Database(m.Database)
}
