package main

import (
	"context"
	"log"
	"time"

	"dhermica-backend/internal/appointments"
	"dhermica-backend/internal/config"
	"dhermica-backend/internal/db"
	"dhermica-backend/internal/professionals"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedProfessional struct {
	Name             string
	Color            string
	Order            int
	LegacyCollection string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	pros := []seedProfessional{
		{Name: "Daniela", Color: "#e91e63", Order: 1, LegacyCollection: "turnos_daniela"},
		{Name: "Marisol", Color: "#9c27b0", Order: 2, LegacyCollection: "turnos_marisol"},
		{Name: "Carla", Color: "#3f51b5", Order: 3},
	}

	now := time.Now().In(cfg.Timezone)
	proIDs := make(map[string]string, len(pros))

	for _, pro := range pros {
		filter := bson.M{"name": pro.Name}
		id := primitive.NewObjectID().Hex()
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":       id,
				"name":      pro.Name,
				"color":     pro.Color,
				"order":     pro.Order,
				"active":    true,
				"createdAt": now,
				"updatedAt": now,
			},
		}
		if pro.LegacyCollection != "" {
			update["$setOnInsert"].(bson.M)["legacyCollectionName"] = pro.LegacyCollection
		}

		if _, err := cols.Professionals.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatal(err)
		}

		var stored professionals.Professional
		if err := cols.Professionals.FindOne(ctx, filter).Decode(&stored); err != nil {
			log.Fatal(err)
		}
		proIDs[pro.Name] = stored.ID
		log.Printf("professional %s: %s", pro.Name, stored.ID)
	}

	date := now.Format("2006-01-02")
	demo := []appointments.Appointment{
		{ClientName: "Lucía Pérez", Treatment: "Depilación definitiva", Date: date, Time: "09:00", Duration: 1.0, ProfessionalID: proIDs["Daniela"]},
		{ClientName: "Martina López", Treatment: "Limpieza facial", Date: date, Time: "10:30", Duration: 1.5, ProfessionalID: proIDs["Marisol"]},
		{ClientName: "Sofía García", Treatment: "Masaje descontracturante", Date: date, Time: "11:00", Duration: 0.5},
	}

	for _, item := range demo {
		item.ID = primitive.NewObjectID().Hex()
		item.CreatedAt = now
		item.UpdatedAt = now

		filter := bson.M{
			"clientName": item.ClientName,
			"date":       item.Date,
			"time":       item.Time,
		}
		update := bson.M{"$setOnInsert": item}
		if _, err := cols.Appointments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("seeded %d professionals and %d appointments for %s", len(pros), len(demo), date)
}
