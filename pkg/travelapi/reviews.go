package travelapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Review struct {
	ID              int64     `json:"id"`
	User            *User     `json:"user,omitempty"`
	Destination     int64     `json:"destination"`
	DestinationName string    `json:"destination_name,omitempty"`
	Rating          int       `json:"rating"`
	Title           string    `json:"title"`
	Comment         string    `json:"comment"`
	HelpfulVotes    int       `json:"helpful_votes"`
	TotalVotes      int       `json:"total_votes"`
	IsVerified      bool      `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateReviewRequest struct {
	Destination    int64  `json:"destination"`
	Rating         int    `json:"rating"`
	Title          string `json:"title"`
	Comment        string `json:"comment"`
	ValueForMoney  int    `json:"value_for_money,omitempty"`
	ServiceQuality int    `json:"service_quality,omitempty"`
	Cleanliness    int    `json:"cleanliness,omitempty"`
	Location       int    `json:"location,omitempty"`
}

// ListReviews accepts both the bare list and the paginated envelope.
func (c Client) ListReviews(ctx context.Context, destinationID int64) ([]Review, error) {
	var raw json.RawMessage
	q := url.Values{"destination": {strconv.FormatInt(destinationID, 10)}}
	if _, err := c.doJSON(ctx, http.MethodGet, "/reviews/", q, nil, &raw); err != nil {
		return nil, err
	}
	var list []Review
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var page Page[Review]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c Client) CreateReview(ctx context.Context, req CreateReviewRequest) (*Review, error) {
	var r Review
	if _, err := c.doJSON(ctx, http.MethodPost, "/reviews/", nil, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
