package professionals

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("professional not found")

// Directory is the read-only view the scheduling core depends on.
type Directory interface {
	List(ctx context.Context, activeOnly bool) ([]Professional, error)
	GetByID(ctx context.Context, id string) (*Professional, error)
}

type Service struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		location: location,
	}
}

func (s *Service) Create(ctx context.Context, req UpsertRequest) (Professional, error) {
	now := time.Now().In(s.location)
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	order := 0
	if req.Order != nil {
		order = *req.Order
	}

	item := Professional{
		ID:                   primitive.NewObjectID().Hex(),
		Name:                 strings.TrimSpace(req.Name),
		Color:                strings.TrimSpace(req.Color),
		Order:                order,
		Active:               active,
		LegacyCollectionName: strings.TrimSpace(req.LegacyCollectionName),
		UserID:               strings.TrimSpace(req.UserID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return Professional{}, err
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpsertRequest) (Professional, error) {
	set := bson.M{
		"name":      strings.TrimSpace(req.Name),
		"updatedAt": time.Now().In(s.location),
	}
	if req.Color != "" {
		set["color"] = strings.TrimSpace(req.Color)
	}
	if req.Order != nil {
		set["order"] = *req.Order
	}
	if req.Active != nil {
		set["active"] = *req.Active
	}
	if req.LegacyCollectionName != "" {
		set["legacyCollectionName"] = strings.TrimSpace(req.LegacyCollectionName)
	}
	if req.UserID != "" {
		set["userId"] = strings.TrimSpace(req.UserID)
	}

	updated, err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Professional{}, ErrNotFound
		}
		return Professional{}, err
	}
	return updated, nil
}

// Deactivate is the normal retirement path; the professional stays
// resolvable for legacy mirror routing of existing appointments.
func (s *Service) Deactivate(ctx context.Context, id string) (Professional, error) {
	updated, err := s.repo.Update(ctx, id, bson.M{
		"active":    false,
		"updatedAt": time.Now().In(s.location),
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Professional{}, ErrNotFound
		}
		return Professional{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Professional, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Professional, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
