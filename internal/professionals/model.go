package professionals

import "time"

type Professional struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	Name                 string    `bson:"name" json:"name"`
	Color                string    `bson:"color" json:"color"`
	Order                int       `bson:"order" json:"order"`
	Active               bool      `bson:"active" json:"active"`
	LegacyCollectionName string    `bson:"legacyCollectionName,omitempty" json:"legacyCollectionName,omitempty"`
	UserID               string    `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt" json:"updatedAt"`
}

type UpsertRequest struct {
	Name                 string `json:"name" validate:"required"`
	Color                string `json:"color" validate:"omitempty,hexcolor"`
	Order                *int   `json:"order" validate:"omitempty,gte=0"`
	Active               *bool  `json:"active"`
	LegacyCollectionName string `json:"legacyCollectionName"`
	UserID               string `json:"userId"`
}
