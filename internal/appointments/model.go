package appointments

import (
	"time"

	"dhermica-backend/internal/schedule"
)

type Appointment struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	ClientName     string    `bson:"clientName" json:"clientName"`
	ClientID       string    `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Treatment      string    `bson:"treatment" json:"treatment"`
	Date           string    `bson:"date" json:"date"`
	Time           string    `bson:"time" json:"time"`
	Duration       float64   `bson:"duration" json:"duration"`
	ProfessionalID string    `bson:"professionalId,omitempty" json:"professionalId,omitempty"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Price          float64   `bson:"price,omitempty" json:"price,omitempty"`
	PaymentMethod  string    `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	IsPaid         bool      `bson:"isPaid,omitempty" json:"isPaid,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (a Appointment) Span() schedule.Span {
	return schedule.Span{Time: a.Time, Duration: a.Duration}
}

// Validate runs the advisory required-field checks. It reports every
// violation at once and never aborts on the first; overlap detection is a
// separate step against the live candidate set.
func Validate(a Appointment) []string {
	errs := make([]string, 0)
	if a.ClientName == "" {
		errs = append(errs, "client name is required")
	}
	if a.Treatment == "" {
		errs = append(errs, "treatment is required")
	}
	if a.Date == "" {
		errs = append(errs, "date is required")
	}
	if a.Time == "" {
		errs = append(errs, "time is required")
	}
	if a.Duration <= 0 {
		errs = append(errs, "duration must be greater than zero")
	}
	return errs
}

// Patch is a partial update. Nil fields are left untouched; the
// professionalId of the stored record is discovered server-side when the
// patch does not carry one.
type Patch struct {
	ClientName     *string  `json:"clientName"`
	ClientID       *string  `json:"clientId"`
	Treatment      *string  `json:"treatment"`
	Date           *string  `json:"date" validate:"omitempty,date"`
	Time           *string  `json:"time" validate:"omitempty,clock"`
	Duration       *float64 `json:"duration" validate:"omitempty,gt=0,halfhour"`
	ProfessionalID *string  `json:"professionalId"`
	Notes          *string  `json:"notes"`
	Price          *float64 `json:"price" validate:"omitempty,gte=0"`
	PaymentMethod  *string  `json:"paymentMethod"`
	IsPaid         *bool    `json:"isPaid"`
}
