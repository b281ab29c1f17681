package appointments

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The legacy per-professional collections predate the unified store and
// keep Spanish field names. Old documents in the unified collection may
// carry either schema, so every read goes through FromDocument and every
// mirror write through toLegacyFields. Canonical names win when both are
// present.
//
//	clientName <-> nombre
//	treatment  <-> servicio
//	date       <-> fecha
//	time       <-> hora
//	duration   <-> duracion
//	notes      <-> notas

func stringField(doc bson.M, canonical, legacy string) string {
	if v, ok := doc[canonical].(string); ok && v != "" {
		return v
	}
	if v, ok := doc[legacy].(string); ok {
		return v
	}
	return ""
}

func floatField(doc bson.M, canonical, legacy string) float64 {
	if v := extractFloat(doc[canonical]); v != 0 {
		return v
	}
	return extractFloat(doc[legacy])
}

func extractFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func extractTime(value interface{}) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	default:
		return time.Time{}
	}
}

func extractString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return ""
	}
}

// FromDocument normalizes a raw document from either schema into a
// canonical Appointment.
func FromDocument(doc bson.M) Appointment {
	return Appointment{
		ID:             extractString(doc["_id"]),
		ClientName:     stringField(doc, "clientName", "nombre"),
		ClientID:       stringField(doc, "clientId", "clienteId"),
		Treatment:      stringField(doc, "treatment", "servicio"),
		Date:           stringField(doc, "date", "fecha"),
		Time:           stringField(doc, "time", "hora"),
		Duration:       floatField(doc, "duration", "duracion"),
		ProfessionalID: extractString(doc["professionalId"]),
		Notes:          stringField(doc, "notes", "notas"),
		Price:          floatField(doc, "price", "precio"),
		PaymentMethod:  stringField(doc, "paymentMethod", "metodoPago"),
		IsPaid:         doc["isPaid"] == true || doc["pagado"] == true,
		CreatedAt:      extractTime(doc["createdAt"]),
		UpdatedAt:      extractTime(doc["updatedAt"]),
	}
}

// toLegacyFields projects a canonical appointment onto the legacy schema
// for a full mirror write.
func toLegacyFields(a Appointment) bson.M {
	doc := bson.M{
		"nombre":   a.ClientName,
		"servicio": a.Treatment,
		"fecha":    a.Date,
		"hora":     a.Time,
		"duracion": a.Duration,
	}
	if a.Notes != "" {
		doc["notas"] = a.Notes
	}
	return doc
}

// patchToLegacyFields translates only the fields present in a partial
// update so a mirror patch never clobbers untouched legacy fields.
func patchToLegacyFields(p Patch) bson.M {
	set := bson.M{}
	if p.ClientName != nil {
		set["nombre"] = *p.ClientName
	}
	if p.Treatment != nil {
		set["servicio"] = *p.Treatment
	}
	if p.Date != nil {
		set["fecha"] = *p.Date
	}
	if p.Time != nil {
		set["hora"] = *p.Time
	}
	if p.Duration != nil {
		set["duracion"] = *p.Duration
	}
	if p.Notes != nil {
		set["notas"] = *p.Notes
	}
	return set
}
