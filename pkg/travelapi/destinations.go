package travelapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

type Destination struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug,omitempty"`
	City             string              `json:"city"`
	Country          string              `json:"country"`
	Category         *Category           `json:"category,omitempty"`
	ShortDescription string              `json:"short_description,omitempty"`
	PricePerPerson   decimal.NullDecimal `json:"price_per_person"`
	DurationDays     int                 `json:"duration_days,omitempty"`
	Difficulty       string              `json:"difficulty,omitempty"`
	IsFeatured       bool                `json:"is_featured,omitempty"`
	AverageRating    float64             `json:"average_rating,omitempty"`
}

// Page is the paginated list envelope of the API.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type DestinationQuery struct {
	Category   string
	Difficulty string
	Search     string
	Ordering   string
	Page       int
}

func (q DestinationQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Difficulty != "" {
		v.Set("difficulty", q.Difficulty)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

func (c Client) ListDestinations(ctx context.Context, q DestinationQuery) (*Page[Destination], error) {
	var p Page[Destination]
	if _, err := c.doJSON(ctx, http.MethodGet, "/destinations/", q.values(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c Client) GetDestination(ctx context.Context, id int64) (*Destination, error) {
	var d Destination
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/destinations/%d/", id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c Client) FeaturedDestinations(ctx context.Context) ([]Destination, error) {
	var out []Destination
	if _, err := c.doJSON(ctx, http.MethodGet, "/destinations/featured/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) DestinationCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if _, err := c.doJSON(ctx, http.MethodGet, "/destinations/categories/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) SearchDestinations(ctx context.Context, query string) ([]Destination, error) {
	var out []Destination
	if _, err := c.doJSON(ctx, http.MethodGet, "/destinations/search/", url.Values{"q": {query}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
