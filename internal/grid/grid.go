package grid

import (
	"dhermica-backend/internal/appointments"
	"dhermica-backend/internal/professionals"
	"dhermica-backend/internal/schedule"
)

type CellKind string

const (
	CellEmpty        CellKind = "empty"
	CellAnchor       CellKind = "anchor"
	CellContinuation CellKind = "continuation"
)

// Cell is one (professional, slot) position. Only anchor cells carry the
// appointment; continuation cells are suppressed from rendering and exist
// so a client knows the slot is taken.
type Cell struct {
	Kind        CellKind                  `json:"kind"`
	Rows        int                       `json:"rows,omitempty"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
}

type Column struct {
	ProfessionalID string `json:"professionalId,omitempty"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	Cells          []Cell `json:"cells"`
}

type DayGrid struct {
	Date    string   `json:"date"`
	Slots   []string `json:"slots"`
	Columns []Column `json:"columns"`
}

// Build assembles the day view: one column per professional in directory
// order plus a trailing column for unassigned appointments. An
// appointment anchors at the slot equal to its exact start time and spans
// ceil(duration/0.5) rows. If overlapping records slipped into the store,
// the first claimant keeps the cell and the rest silently lose it.
func Build(date string, pros []professionals.Professional, appts []appointments.Appointment) DayGrid {
	slots := schedule.GenerateTimeSlots()

	columns := make([]Column, 0, len(pros)+1)
	for _, pro := range pros {
		columns = append(columns, buildColumn(pro.ID, pro.Name, pro.Color, slots, appts))
	}
	columns = append(columns, buildColumn("", "General", "", slots, appts))

	return DayGrid{
		Date:    date,
		Slots:   slots,
		Columns: columns,
	}
}

func buildColumn(professionalID, name, color string, slots []string, appts []appointments.Appointment) Column {
	cells := make([]Cell, len(slots))

	for i, slot := range slots {
		cell := Cell{Kind: CellEmpty}
		for idx := range appts {
			appt := &appts[idx]
			if appt.ProfessionalID != professionalID {
				continue
			}
			if !schedule.IsSlotOccupied(slot, appt.Span()) {
				continue
			}
			if appt.Time == slot {
				cell = Cell{
					Kind:        CellAnchor,
					Rows:        schedule.SpanRows(appt.Duration),
					Appointment: appt,
				}
			} else {
				cell = Cell{Kind: CellContinuation}
			}
			break
		}
		cells[i] = cell
	}

	return Column{
		ProfessionalID: professionalID,
		Name:           name,
		Color:          color,
		Cells:          cells,
	}
}
