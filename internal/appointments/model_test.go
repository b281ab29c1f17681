package appointments

import "testing"

func TestValidateEmpty(t *testing.T) {
	msgs := Validate(Appointment{})
	if len(msgs) < 4 {
		t.Fatalf("expected at least 4 violations, got %d: %v", len(msgs), msgs)
	}
}

func TestValidateZeroDuration(t *testing.T) {
	msgs := Validate(Appointment{
		ClientName: "Lucía",
		Treatment:  "Limpieza facial",
		Date:       "2026-03-10",
		Time:       "09:00",
		Duration:   0,
	})
	if len(msgs) != 1 {
		t.Fatalf("expected exactly the duration violation, got %v", msgs)
	}
}

func TestValidateOK(t *testing.T) {
	msgs := Validate(Appointment{
		ClientName: "Lucía",
		Treatment:  "Limpieza facial",
		Date:       "2026-03-10",
		Time:       "09:00",
		Duration:   1.0,
	})
	if len(msgs) != 0 {
		t.Fatalf("expected no violations, got %v", msgs)
	}
}
