package appointments

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestLegacyRoundTrip(t *testing.T) {
	original := Appointment{
		ID:         "abc123",
		ClientName: "Lucía Pérez",
		Treatment:  "Depilación definitiva",
		Date:       "2026-03-10",
		Time:       "09:30",
		Duration:   1.5,
		Notes:      "pedir turno doble",
	}

	doc := toLegacyFields(original)
	doc["_id"] = original.ID

	restored := FromDocument(doc)
	if restored.ClientName != original.ClientName {
		t.Fatalf("client name lost: %q", restored.ClientName)
	}
	if restored.Treatment != original.Treatment {
		t.Fatalf("treatment lost: %q", restored.Treatment)
	}
	if restored.Date != original.Date {
		t.Fatalf("date lost: %q", restored.Date)
	}
	if restored.Time != original.Time {
		t.Fatalf("time lost: %q", restored.Time)
	}
	if restored.Duration != original.Duration {
		t.Fatalf("duration lost: %v", restored.Duration)
	}
	if restored.Notes != original.Notes {
		t.Fatalf("notes lost: %q", restored.Notes)
	}
}

func TestFromDocumentPrefersCanonical(t *testing.T) {
	doc := bson.M{
		"_id":        "x1",
		"clientName": "Martina",
		"nombre":     "vieja",
		"treatment":  "Limpieza facial",
		"servicio":   "viejo",
		"date":       "2026-03-10",
		"fecha":      "2020-01-01",
		"time":       "10:00",
		"hora":       "08:00",
		"duration":   1.0,
		"duracion":   2.0,
	}

	item := FromDocument(doc)
	if item.ClientName != "Martina" {
		t.Fatalf("expected canonical name, got %q", item.ClientName)
	}
	if item.Treatment != "Limpieza facial" {
		t.Fatalf("expected canonical treatment, got %q", item.Treatment)
	}
	if item.Date != "2026-03-10" || item.Time != "10:00" || item.Duration != 1.0 {
		t.Fatalf("expected canonical schedule fields, got %s %s %v", item.Date, item.Time, item.Duration)
	}
}

func TestFromDocumentLegacyFallback(t *testing.T) {
	doc := bson.M{
		"_id":      "x2",
		"nombre":   "Sofía",
		"servicio": "Masaje",
		"fecha":    "2026-03-11",
		"hora":     "14:30",
		"duracion": int32(2),
		"notas":    "primera vez",
	}

	item := FromDocument(doc)
	if item.ClientName != "Sofía" || item.Treatment != "Masaje" {
		t.Fatalf("legacy fields not normalized: %+v", item)
	}
	if item.Date != "2026-03-11" || item.Time != "14:30" {
		t.Fatalf("legacy schedule fields not normalized: %+v", item)
	}
	if item.Duration != 2 {
		t.Fatalf("expected duration 2 from int32 legacy field, got %v", item.Duration)
	}
	if item.Notes != "primera vez" {
		t.Fatalf("legacy notes not normalized: %q", item.Notes)
	}
}

func TestPatchToLegacyFieldsOnlyPresent(t *testing.T) {
	newTime := "11:00"
	set := patchToLegacyFields(Patch{Time: &newTime})
	if len(set) != 1 {
		t.Fatalf("expected only the patched field, got %v", set)
	}
	if set["hora"] != "11:00" {
		t.Fatalf("expected hora=11:00, got %v", set["hora"])
	}
}
