package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Appointments  *mongo.Collection
	Professionals *mongo.Collection

	db *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	database := client.Database(dbName)

	cols := &Collections{
		Appointments:  database.Collection("appointments"),
		Professionals: database.Collection("professionals"),
		db:            database,
	}

	return client, cols, nil
}

// Legacy returns the handle for a professional's dedicated mirror
// collection. These collections are named per professional and only exist
// once something has been written to them.
func (c *Collections) Legacy(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Appointments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}},
		},
		{
			// Backstop against same-slot races between concurrent bookers.
			// Partial so unassigned appointments stay exempt.
			Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"professionalId": bson.M{"$exists": true, "$gt": ""}}),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Professionals.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "order", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
