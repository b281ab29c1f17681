package appointments

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"dhermica-backend/internal/professionals"
	"dhermica-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Service struct {
	repo      Repository
	directory professionals.Directory
	syncer    *Syncer
	feeds     FeedOpener
	log       *slog.Logger
	location  *time.Location
}

func NewService(repo Repository, directory professionals.Directory, syncer *Syncer, feeds FeedOpener, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		syncer:    syncer,
		feeds:     feeds,
		log:       log,
		location:  location,
	}
}

// checkConflict runs the overlap check against a fresh candidate set
// inside the write path. excludeID skips the record being edited.
// Unassigned appointments are exempt from mutual overlap, matching the
// historical behavior of the shared walk-in column.
func (s *Service) checkConflict(ctx context.Context, candidate Appointment, excludeID string) error {
	if candidate.ProfessionalID == "" {
		return nil
	}

	others, err := s.repo.FindCandidates(ctx, candidate.ProfessionalID, candidate.Date)
	if err != nil {
		return &PersistenceError{Op: "conflict check", Err: err}
	}

	span := candidate.Span()
	for _, other := range others {
		if other.ID == excludeID {
			continue
		}
		if schedule.Overlaps(span, other.Span()) {
			return &ConflictError{Date: candidate.Date, Time: candidate.Time}
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, item Appointment) (string, error) {
	if msgs := Validate(item); len(msgs) > 0 {
		return "", &ValidationError{Messages: msgs}
	}
	if err := s.checkConflict(ctx, item, ""); err != nil {
		return "", err
	}

	now := time.Now().In(s.location)
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.Insert(ctx, item); err != nil {
		// The partial unique index catches the race two concurrent
		// bookers win against the candidate-set check.
		if mongo.IsDuplicateKeyError(err) {
			return "", &ConflictError{Date: item.Date, Time: item.Time}
		}
		return "", &PersistenceError{Op: "create", Err: err}
	}

	s.syncer.OnCreate(ctx, item)
	return item.ID, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "update read", Err: err}
	}

	// Route the mirror with the patch's professional when present,
	// otherwise with the stored one. A missing record skips routing
	// silently but still issues the canonical update.
	professionalID := ""
	if existing != nil {
		professionalID = existing.ProfessionalID
	}
	if patch.ProfessionalID != nil {
		professionalID = *patch.ProfessionalID
	}

	if existing != nil {
		merged := applyPatch(*existing, patch)
		if msgs := Validate(merged); len(msgs) > 0 {
			return &ValidationError{Messages: msgs}
		}
		if err := s.checkConflict(ctx, merged, id); err != nil {
			return err
		}
	}

	set := patchToSet(patch)
	set["updatedAt"] = time.Now().In(s.location)

	if err := s.repo.Update(ctx, id, set); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &ConflictError{}
		}
		return &PersistenceError{Op: "update", Err: err}
	}

	s.syncer.OnUpdate(ctx, id, professionalID, patch)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "delete read", Err: err}
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}

	if existing != nil {
		s.syncer.OnDelete(ctx, id, existing.ProfessionalID)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Appointment, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return item, nil
}

func (s *Service) GetByDateRange(ctx context.Context, from, to string) ([]Appointment, error) {
	items, err := s.repo.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, &PersistenceError{Op: "range", Err: err}
	}
	return items, nil
}

// Search matches the term case-insensitively against client name and
// treatment across the unified collection and every active professional's
// legacy collection, deduplicated by id, most recent first.
func (s *Service) Search(ctx context.Context, term, date string) ([]Appointment, error) {
	term = strings.TrimSpace(term)

	results, err := s.repo.SearchUnified(ctx, term, date)
	if err != nil {
		return nil, &PersistenceError{Op: "search", Err: err}
	}

	pros, err := s.directory.List(ctx, true)
	if err != nil {
		return nil, &PersistenceError{Op: "search directory", Err: err}
	}
	for _, pro := range pros {
		if pro.LegacyCollectionName == "" {
			continue
		}
		legacyHits, err := s.repo.SearchLegacy(ctx, pro.LegacyCollectionName, term, date)
		if err != nil {
			return nil, &PersistenceError{Op: "search legacy", Err: err}
		}
		results = append(results, legacyHits...)
	}

	deduped := DedupeByID(results)
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Date != deduped[j].Date {
			return deduped[i].Date > deduped[j].Date
		}
		return deduped[i].Time > deduped[j].Time
	})
	return deduped, nil
}

// GetDay returns the merged day view the subscription would deliver, as a
// one-shot read: unified collection under both date schemas plus every
// active professional's legacy collection, deduplicated by id and sorted
// by start time.
func (s *Service) GetDay(ctx context.Context, date string) ([]Appointment, error) {
	all, err := s.repo.FindByDateField(ctx, "date", date)
	if err != nil {
		return nil, &PersistenceError{Op: "day", Err: err}
	}
	legacyNamed, err := s.repo.FindByDateField(ctx, "fecha", date)
	if err != nil {
		return nil, &PersistenceError{Op: "day", Err: err}
	}
	all = append(all, legacyNamed...)

	pros, err := s.directory.List(ctx, true)
	if err != nil {
		return nil, &PersistenceError{Op: "day directory", Err: err}
	}
	for _, pro := range pros {
		if pro.LegacyCollectionName == "" {
			continue
		}
		mirrored, err := s.repo.FindLegacyByDate(ctx, pro.LegacyCollectionName, date)
		if err != nil {
			return nil, &PersistenceError{Op: "day legacy", Err: err}
		}
		all = append(all, mirrored...)
	}

	merged := DedupeByID(all)
	sort.SliceStable(merged, func(i, j int) bool {
		ti := schedule.TimeToDecimal(merged[i].Time)
		tj := schedule.TimeToDecimal(merged[j].Time)
		if ti != tj {
			return ti < tj
		}
		return merged[i].ClientName < merged[j].ClientName
	})
	return merged, nil
}

// SubscribeByDate opens the realtime day feed: the unified collection by
// canonical date, the unified collection by legacy fecha, and one feed per
// professional with a legacy collection. onChange always receives the full
// merged snapshot. The returned function tears down every feed at once.
func (s *Service) SubscribeByDate(ctx context.Context, date string, onChange func([]Appointment)) (func(), error) {
	pros, err := s.directory.List(ctx, true)
	if err != nil {
		return nil, &PersistenceError{Op: "subscribe directory", Err: err}
	}

	sources := []FeedSource{
		s.feeds.Unified("date", date),
		s.feeds.Unified("fecha", date),
	}
	for _, pro := range pros {
		if pro.LegacyCollectionName == "" {
			continue
		}
		sources = append(sources, s.feeds.Legacy(pro.LegacyCollectionName, date))
	}

	agg := NewAggregator(sources, onChange, s.log)
	return agg.Start(ctx)
}

// DedupeByID keeps the first record seen for each id. Callers order the
// inputs so canonical records precede legacy mirrors.
func DedupeByID(items []Appointment) []Appointment {
	seen := make(map[string]bool, len(items))
	out := make([]Appointment, 0, len(items))
	for _, item := range items {
		if item.ID != "" && seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func applyPatch(base Appointment, patch Patch) Appointment {
	if patch.ClientName != nil {
		base.ClientName = *patch.ClientName
	}
	if patch.ClientID != nil {
		base.ClientID = *patch.ClientID
	}
	if patch.Treatment != nil {
		base.Treatment = *patch.Treatment
	}
	if patch.Date != nil {
		base.Date = *patch.Date
	}
	if patch.Time != nil {
		base.Time = *patch.Time
	}
	if patch.Duration != nil {
		base.Duration = *patch.Duration
	}
	if patch.ProfessionalID != nil {
		base.ProfessionalID = *patch.ProfessionalID
	}
	if patch.Notes != nil {
		base.Notes = *patch.Notes
	}
	if patch.Price != nil {
		base.Price = *patch.Price
	}
	if patch.PaymentMethod != nil {
		base.PaymentMethod = *patch.PaymentMethod
	}
	if patch.IsPaid != nil {
		base.IsPaid = *patch.IsPaid
	}
	return base
}

func patchToSet(patch Patch) bson.M {
	set := bson.M{}
	if patch.ClientName != nil {
		set["clientName"] = *patch.ClientName
	}
	if patch.ClientID != nil {
		set["clientId"] = *patch.ClientID
	}
	if patch.Treatment != nil {
		set["treatment"] = *patch.Treatment
	}
	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.Time != nil {
		set["time"] = *patch.Time
	}
	if patch.Duration != nil {
		set["duration"] = *patch.Duration
	}
	if patch.ProfessionalID != nil {
		set["professionalId"] = *patch.ProfessionalID
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.PaymentMethod != nil {
		set["paymentMethod"] = *patch.PaymentMethod
	}
	if patch.IsPaid != nil {
		set["isPaid"] = *patch.IsPaid
	}
	return set
}
