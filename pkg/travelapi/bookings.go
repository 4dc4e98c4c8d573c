package travelapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest is the wire shape of POST /bookings/.
type CreateBookingRequest struct {
	Destination         int64             `json:"destination"`
	StartDate           string            `json:"start_date"`
	EndDate             string            `json:"end_date"`
	NumberOfTravelers   int               `json:"number_of_travelers"`
	PrimaryContactName  string            `json:"primary_contact_name"`
	PrimaryContactPhone string            `json:"primary_contact_phone"`
	PrimaryContactEmail string            `json:"primary_contact_email"`
	SpecialRequirements string            `json:"special_requirements"`
	DietaryRestrictions string            `json:"dietary_restrictions"`
	Travelers           []TravelerPayload `json:"travelers"`
}

// TravelerPayload is deliberately narrower than the traveler collected by the booking flow.
type TravelerPayload struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
}

type CreateBookingResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Booking *Booking `json:"booking,omitempty"`
}

type Booking struct {
	ID                  int64             `json:"id"`
	BookingID           string            `json:"booking_id"`
	Destination         int64             `json:"destination"`
	DestinationDetails  *Destination      `json:"destination_details,omitempty"`
	StartDate           string            `json:"start_date"`
	EndDate             string            `json:"end_date"`
	NumberOfTravelers   int               `json:"number_of_travelers"`
	TotalPrice          decimal.Decimal   `json:"total_price"`
	PrimaryContactName  string            `json:"primary_contact_name"`
	PrimaryContactEmail string            `json:"primary_contact_email"`
	PrimaryContactPhone string            `json:"primary_contact_phone"`
	SpecialRequirements string            `json:"special_requirements"`
	DietaryRestrictions string            `json:"dietary_restrictions"`
	Status              string            `json:"status"`
	PaymentStatus       string            `json:"payment_status"`
	Travelers           []TravelerPayload `json:"travelers,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type BookingSummary struct {
	TotalBookings     int `json:"total_bookings"`
	PendingBookings   int `json:"pending_bookings"`
	ConfirmedBookings int `json:"confirmed_bookings"`
	CompletedBookings int `json:"completed_bookings"`
	CancelledBookings int `json:"cancelled_bookings"`
}

func (c Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	if req.Destination == 0 {
		return nil, fmt.Errorf("missing destination")
	}
	var resp CreateBookingResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/bookings/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var out []Booking
	if _, err := c.doJSON(ctx, http.MethodGet, "/bookings/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	var b Booking
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/bookings/%d/", id), nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CancelBooking cancels a booking. The API refuses bookings that are already cancelled or completed.
func (c Client) CancelBooking(ctx context.Context, id int64) (*Booking, error) {
	var resp struct {
		Message string  `json:"message"`
		Booking Booking `json:"booking"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel/", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Booking, nil
}

func (c Client) BookingSummary(ctx context.Context) (*BookingSummary, error) {
	var s BookingSummary
	if _, err := c.doJSON(ctx, http.MethodGet, "/bookings/summary/", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
