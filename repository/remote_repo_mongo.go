package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vehicleinventory/db"
	"vehicleinventory/db/mongo"
)

// MongoRemoteRepo mirrors each table into a collection of the same name.
// Documents are matched on the table's key column, not on _id.
type MongoRemoteRepo struct {
	DB *mongo.MongoDB
}

func NewMongoRemoteRepo(conn *mongo.MongoDB) *MongoRemoteRepo {
	return &MongoRemoteRepo{DB: conn}
}

func (r *MongoRemoteRepo) FetchAll(ctx context.Context, table string) ([]db.Row, error) {
	cursor, err := r.DB.DB().Collection(table).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]db.Row, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

func (r *MongoRemoteRepo) Insert(ctx context.Context, table string, row db.Row) error {
	_, err := r.DB.DB().Collection(table).InsertOne(ctx, bson.M(row))
	return err
}

func (r *MongoRemoteRepo) Update(ctx context.Context, table, key string, id any, row db.Row) error {
	_, err := r.DB.DB().Collection(table).ReplaceOne(ctx,
		bson.M{key: id},
		bson.M(row),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MongoRemoteRepo) Close() error {
	return r.DB.Disconnect()
}

// fromDocument drops the Mongo-assigned _id and widens BSON-specific values
// to the types the SQLite drivers hand back.
func fromDocument(doc bson.M) db.Row {
	row := make(db.Row, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		switch val := v.(type) {
		case int32:
			row[k] = int64(val)
		case primitive.DateTime:
			row[k] = val.Time().UTC()
		default:
			row[k] = val
		}
	}
	return row
}
