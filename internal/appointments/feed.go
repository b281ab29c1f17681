package appointments

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"dhermica-backend/internal/db"
	"dhermica-backend/internal/schedule"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedSource is one realtime feed: a filtered snapshot query plus a change
// notification channel. Every tick means "re-read the snapshot", not a
// diff.
type FeedSource interface {
	Name() string
	Snapshot(ctx context.Context) ([]Appointment, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// FeedOpener builds the three feed shapes a day subscription needs.
type FeedOpener interface {
	Unified(field, date string) FeedSource
	Legacy(collection, date string) FeedSource
}

type MongoFeeds struct {
	cols *db.Collections
	repo *MongoRepository
}

func NewFeeds(cols *db.Collections, repo *MongoRepository) *MongoFeeds {
	return &MongoFeeds{cols: cols, repo: repo}
}

func (f *MongoFeeds) Unified(field, date string) FeedSource {
	return &mongoFeed{
		name: "unified:" + field,
		col:  f.cols.Appointments,
		snapshot: func(ctx context.Context) ([]Appointment, error) {
			return f.repo.FindByDateField(ctx, field, date)
		},
	}
}

func (f *MongoFeeds) Legacy(collection, date string) FeedSource {
	return &mongoFeed{
		name: "legacy:" + collection,
		col:  f.cols.Legacy(collection),
		snapshot: func(ctx context.Context) ([]Appointment, error) {
			return f.repo.FindLegacyByDate(ctx, collection, date)
		},
	}
}

type mongoFeed struct {
	name     string
	col      *mongo.Collection
	snapshot func(ctx context.Context) ([]Appointment, error)
}

func (f *mongoFeed) Name() string { return f.name }

func (f *mongoFeed) Snapshot(ctx context.Context) ([]Appointment, error) {
	return f.snapshot(ctx)
}

func (f *mongoFeed) Watch(ctx context.Context) (<-chan struct{}, error) {
	// Deletes carry no full document, so the pipeline only narrows by
	// operation type; the snapshot query does the date filtering.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": []string{"insert", "update", "replace", "delete"}},
		}}},
	}
	stream, err := f.col.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			select {
			case ticks <- struct{}{}:
			default:
				// A pending tick already forces a re-read.
			}
		}
	}()
	return ticks, nil
}

// Aggregator owns one snapshot per feed and recomputes the merged,
// deduplicated, time-sorted day view on every feed event. Teardown is
// all-or-nothing: the unsubscribe function stops every feed.
type Aggregator struct {
	sources  []FeedSource
	onChange func([]Appointment)
	log      *slog.Logger

	mu        sync.Mutex
	order     []string
	snapshots map[string][]Appointment

	// deliver serializes merge and callback. Without it two concurrent
	// refreshes could hand their merges to the subscriber out of order,
	// and an older merge arriving last would leave the view stale until
	// the next unrelated event.
	deliver sync.Mutex
}

func NewAggregator(sources []FeedSource, onChange func([]Appointment), log *slog.Logger) *Aggregator {
	return &Aggregator{
		sources:   sources,
		onChange:  onChange,
		log:       log,
		snapshots: make(map[string][]Appointment, len(sources)),
	}
}

func (a *Aggregator) Start(ctx context.Context) (func(), error) {
	feedCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for _, src := range a.sources {
		// Two professionals may share a legacy collection name; the key
		// must stay unique per feed instance.
		key := src.Name() + ":" + uuid.NewString()

		a.mu.Lock()
		a.order = append(a.order, key)
		a.mu.Unlock()

		wg.Add(1)
		go func(key string, src FeedSource) {
			defer wg.Done()

			// The stream opens before the first snapshot so a write
			// landing between the two surfaces as a tick instead of
			// going missing until the next event.
			ticks, err := src.Watch(feedCtx)
			if err != nil {
				a.log.Warn("feed: watch failed",
					slog.String("feed", src.Name()),
					slog.String("error", err.Error()),
				)
				a.refresh(feedCtx, key, src)
				return
			}

			a.refresh(feedCtx, key, src)
			for range ticks {
				if feedCtx.Err() != nil {
					return
				}
				a.refresh(feedCtx, key, src)
			}
		}(key, src)
	}

	unsubscribe := func() {
		cancel()
		wg.Wait()
	}
	return unsubscribe, nil
}

func (a *Aggregator) refresh(ctx context.Context, key string, src FeedSource) {
	items, err := src.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Keep the last known snapshot on a failed re-read.
		a.log.Warn("feed: snapshot failed",
			slog.String("feed", src.Name()),
			slog.String("error", err.Error()),
		)
		return
	}

	a.deliver.Lock()
	defer a.deliver.Unlock()

	a.mu.Lock()
	a.snapshots[key] = items
	merged := a.mergeLocked()
	a.mu.Unlock()

	a.onChange(merged)
}

// mergeLocked flattens the snapshots in registration order (unified feeds
// first, so canonical records win the dedupe), then sorts by time.
func (a *Aggregator) mergeLocked() []Appointment {
	all := make([]Appointment, 0)
	for _, key := range a.order {
		all = append(all, a.snapshots[key]...)
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
	return merged
}
