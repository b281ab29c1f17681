package appointments

import (
	"context"
	"log/slog"
	"time"

	"dhermica-backend/internal/db"
	"dhermica-backend/internal/professionals"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mirror writes to a professional's legacy collection. The mirror document
// shares the canonical record's id and is disposable: the unified
// collection is always the source of truth.
type Mirror interface {
	Upsert(ctx context.Context, collection, id string, doc bson.M) error
	Patch(ctx context.Context, collection, id string, set bson.M) error
	Delete(ctx context.Context, collection, id string) error
}

type MongoMirror struct {
	cols *db.Collections
}

func NewMirror(cols *db.Collections) *MongoMirror {
	return &MongoMirror{cols: cols}
}

// Upsert uses replace-by-id so a replayed create after a partial failure
// overwrites instead of spawning a duplicate document.
func (m *MongoMirror) Upsert(ctx context.Context, collection, id string, doc bson.M) error {
	_, err := m.cols.Legacy(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoMirror) Patch(ctx context.Context, collection, id string, set bson.M) error {
	_, err := m.cols.Legacy(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (m *MongoMirror) Delete(ctx context.Context, collection, id string) error {
	_, err := m.cols.Legacy(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Syncer mirrors canonical mutations into per-professional legacy
// collections. Every failure here is logged and swallowed: the canonical
// write already succeeded and must never be rolled back or re-reported
// because of the mirror.
type Syncer struct {
	directory professionals.Directory
	mirror    Mirror
	log       *slog.Logger
	location  *time.Location
}

func NewSyncer(directory professionals.Directory, mirror Mirror, log *slog.Logger, location *time.Location) *Syncer {
	return &Syncer{
		directory: directory,
		mirror:    mirror,
		log:       log,
		location:  location,
	}
}

// resolveCollection maps a professional id to its legacy collection name.
// Empty result means mirroring is a no-op for this appointment.
func (s *Syncer) resolveCollection(ctx context.Context, professionalID string) string {
	if professionalID == "" {
		return ""
	}
	pro, err := s.directory.GetByID(ctx, professionalID)
	if err != nil {
		s.log.Warn("legacy sync: directory lookup failed",
			slog.String("professional_id", professionalID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	if pro == nil {
		return ""
	}
	return pro.LegacyCollectionName
}

func (s *Syncer) OnCreate(ctx context.Context, item Appointment) {
	collection := s.resolveCollection(ctx, item.ProfessionalID)
	if collection == "" {
		return
	}

	now := time.Now().In(s.location)
	doc := toLegacyFields(item)
	doc["_id"] = item.ID
	doc["professionalId"] = item.ProfessionalID
	doc["createdAt"] = now
	doc["updatedAt"] = now

	if err := s.mirror.Upsert(ctx, collection, item.ID, doc); err != nil {
		s.log.Warn("legacy sync: create mirror failed",
			slog.String("appointment_id", item.ID),
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Syncer) OnUpdate(ctx context.Context, id, professionalID string, patch Patch) {
	collection := s.resolveCollection(ctx, professionalID)
	if collection == "" {
		return
	}

	set := patchToLegacyFields(patch)
	set["updatedAt"] = time.Now().In(s.location)

	if err := s.mirror.Patch(ctx, collection, id, set); err != nil {
		s.log.Warn("legacy sync: update mirror failed",
			slog.String("appointment_id", id),
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Syncer) OnDelete(ctx context.Context, id, professionalID string) {
	collection := s.resolveCollection(ctx, professionalID)
	if collection == "" {
		return
	}

	if err := s.mirror.Delete(ctx, collection, id); err != nil {
		s.log.Warn("legacy sync: delete mirror failed",
			slog.String("appointment_id", id),
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
	}
}
