package appointments

import (
	"context"

	"dhermica-backend/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, item Appointment) error
	Update(ctx context.Context, id string, set bson.M) error
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	FindByDateRange(ctx context.Context, from, to string) ([]Appointment, error)
	FindCandidates(ctx context.Context, professionalID, date string) ([]Appointment, error)
	FindByDateField(ctx context.Context, field, date string) ([]Appointment, error)
	FindLegacyByDate(ctx context.Context, collection, date string) ([]Appointment, error)
	SearchUnified(ctx context.Context, term, date string) ([]Appointment, error)
	SearchLegacy(ctx context.Context, collection, term, date string) ([]Appointment, error)
}

type MongoRepository struct {
	cols *db.Collections
}

func NewRepository(cols *db.Collections) *MongoRepository {
	return &MongoRepository{cols: cols}
}

func (r *MongoRepository) Insert(ctx context.Context, item Appointment) error {
	_, err := r.cols.Appointments.InsertOne(ctx, item)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) error {
	_, err := r.cols.Appointments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.cols.Appointments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var doc bson.M
	if err := r.cols.Appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	item := FromDocument(doc)
	return &item, nil
}

func (r *MongoRepository) FindByDateRange(ctx context.Context, from, to string) ([]Appointment, error) {
	query := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "time", Value: 1},
	})
	return r.find(ctx, r.cols.Appointments, query, opts)
}

// FindCandidates returns every appointment that could conflict with a
// booking for the given professional on the given date. Old unified
// documents may carry the date under the legacy field name, so both are
// matched.
func (r *MongoRepository) FindCandidates(ctx context.Context, professionalID, date string) ([]Appointment, error) {
	query := bson.M{
		"professionalId": professionalID,
		"$or": []bson.M{
			{"date": date},
			{"fecha": date},
		},
	}
	return r.find(ctx, r.cols.Appointments, query, nil)
}

// FindByDateField scans the unified collection filtered by the named date
// field ("date" or "fecha").
func (r *MongoRepository) FindByDateField(ctx context.Context, field, date string) ([]Appointment, error) {
	return r.find(ctx, r.cols.Appointments, bson.M{field: date}, nil)
}

func (r *MongoRepository) FindLegacyByDate(ctx context.Context, collection, date string) ([]Appointment, error) {
	query := bson.M{"$or": []bson.M{
		{"fecha": date},
		{"date": date},
	}}
	return r.find(ctx, r.cols.Legacy(collection), query, nil)
}

func searchQuery(term, date string) bson.M {
	pattern := primitive.Regex{Pattern: regexQuote(term), Options: "i"}
	query := bson.M{"$or": []bson.M{
		{"clientName": pattern},
		{"nombre": pattern},
		{"treatment": pattern},
		{"servicio": pattern},
	}}
	if date != "" {
		query = bson.M{
			"$and": []bson.M{
				query,
				{"$or": []bson.M{{"date": date}, {"fecha": date}}},
			},
		}
	}
	return query
}

func (r *MongoRepository) SearchUnified(ctx context.Context, term, date string) ([]Appointment, error) {
	return r.find(ctx, r.cols.Appointments, searchQuery(term, date), nil)
}

func (r *MongoRepository) SearchLegacy(ctx context.Context, collection, term, date string) ([]Appointment, error) {
	return r.find(ctx, r.cols.Legacy(collection), searchQuery(term, date), nil)
}

func (r *MongoRepository) find(ctx context.Context, col *mongo.Collection, query bson.M, opts *options.FindOptions) ([]Appointment, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = col.Find(ctx, query, opts)
	} else {
		cursor, err = col.Find(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Appointment, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, FromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func regexQuote(term string) string {
	quoted := make([]rune, 0, len(term))
	for _, r := range term {
		switch r {
		case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			quoted = append(quoted, '\\')
		}
		quoted = append(quoted, r)
	}
	return string(quoted)
}
