package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"travelbooking/pkg/travelapi"
)

// BookingCreator is the slice of the travel API the coordinator needs.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req travelapi.CreateBookingRequest) (*travelapi.CreateBookingResponse, error)
}

type Confirmation struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	// Placeholder is set when the API accepted the booking but omitted its id or status.
	Placeholder bool               `json:"placeholder"`
	Booking     *travelapi.Booking `json:"booking,omitempty"`
}

const (
	placeholderStatus = "Confirmed"
	submitFailedMsg   = "Failed to create booking. Please try again."
)

type fieldMapping struct {
	draft string
	wire  string
	apply func(req *travelapi.CreateBookingRequest, d *Draft)
}

// bookingFields renames draft fields to the booking endpoint's payload keys.
var bookingFields = []fieldMapping{
	{"destination", "destination", func(r *travelapi.CreateBookingRequest, d *Draft) { r.Destination = d.Destination.ID }},
	{"departure_date", "start_date", func(r *travelapi.CreateBookingRequest, d *Draft) { r.StartDate = d.DepartureDate }},
	{"return_date", "end_date", func(r *travelapi.CreateBookingRequest, d *Draft) { r.EndDate = d.ReturnDate }},
	{"traveler_count", "number_of_travelers", func(r *travelapi.CreateBookingRequest, d *Draft) { r.NumberOfTravelers = d.TravelerCount }},
	{"primary_contact_name", "primary_contact_name", func(r *travelapi.CreateBookingRequest, d *Draft) { r.PrimaryContactName = d.PrimaryContactName }},
	{"primary_contact_phone", "primary_contact_phone", func(r *travelapi.CreateBookingRequest, d *Draft) { r.PrimaryContactPhone = d.PrimaryContactPhone }},
	{"primary_contact_email", "primary_contact_email", func(r *travelapi.CreateBookingRequest, d *Draft) { r.PrimaryContactEmail = d.PrimaryContactEmail }},
	{"special_requests", "special_requirements", func(r *travelapi.CreateBookingRequest, d *Draft) { r.SpecialRequirements = d.SpecialRequests }},
	{"general_dietary_requirements", "dietary_restrictions", func(r *travelapi.CreateBookingRequest, d *Draft) {
		r.DietaryRestrictions = d.GeneralDietaryRequirements
	}},
	{"travelers", "travelers", func(r *travelapi.CreateBookingRequest, d *Draft) {
		r.Travelers = make([]travelapi.TravelerPayload, 0, len(d.Travelers))
		for _, t := range d.Travelers {
			r.Travelers = append(r.Travelers, travelerPayload(t))
		}
	}},
}

type travelerMapping struct {
	field string
	apply func(p *travelapi.TravelerPayload, t *Traveler)
}

// travelerFields is everything of a roster record the booking endpoint receives.
// Contact details, age, gender and per-traveler notes stay in the draft.
var travelerFields = []travelerMapping{
	{"first_name", func(p *travelapi.TravelerPayload, t *Traveler) { p.FirstName = t.FirstName }},
	{"last_name", func(p *travelapi.TravelerPayload, t *Traveler) { p.LastName = t.LastName }},
	{"date_of_birth", func(p *travelapi.TravelerPayload, t *Traveler) { p.DateOfBirth = t.DateOfBirth }},
	{"passport_number", func(p *travelapi.TravelerPayload, t *Traveler) { p.PassportNumber = t.PassportNumber }},
	{"nationality", func(p *travelapi.TravelerPayload, t *Traveler) { p.Nationality = t.Nationality }},
}

func travelerPayload(t *Traveler) travelapi.TravelerPayload {
	var p travelapi.TravelerPayload
	for _, m := range travelerFields {
		m.apply(&p, t)
	}
	return p
}

// BuildRequest maps a draft onto the create-booking payload.
func BuildRequest(d *Draft) travelapi.CreateBookingRequest {
	var req travelapi.CreateBookingRequest
	for _, m := range bookingFields {
		m.apply(&req, d)
	}
	return req
}

type Coordinator struct {
	api BookingCreator
	log *slog.Logger
	now func() time.Time
}

func NewCoordinator(api BookingCreator, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{api: api, log: log, now: time.Now}
}

// Submit sends the draft to the booking endpoint once. It does not retry.
func (c *Coordinator) Submit(ctx context.Context, d *Draft) (*Confirmation, error) {
	req := BuildRequest(d)
	resp, err := c.api.CreateBooking(ctx, req)
	if err != nil {
		c.log.Error("create booking failed", "destination", req.Destination, "err", err)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	conf := &Confirmation{Status: placeholderStatus}
	if resp != nil && resp.Booking != nil {
		conf.Booking = resp.Booking
		conf.BookingID = strings.TrimSpace(resp.Booking.BookingID)
		if s := strings.TrimSpace(resp.Booking.Status); s != "" {
			conf.Status = s
		} else {
			conf.Placeholder = true
		}
	} else {
		conf.Placeholder = true
	}
	if conf.BookingID == "" {
		conf.BookingID = fmt.Sprintf("TB%d", c.now().UnixMilli())
		conf.Placeholder = true
	}
	if conf.Placeholder {
		c.log.Warn("booking response missing id or status, using placeholder",
			"booking_id", conf.BookingID, "status", conf.Status)
	}
	return conf, nil
}

// SubmissionMessage turns a submit error into the banner text shown on the contact step.
func SubmissionMessage(err error) string {
	return travelapi.UserMessage(err, submitFailedMsg)
}
