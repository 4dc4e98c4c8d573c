package travelapi

import (
	"context"
	"net/http"
)

type ToggleFavoriteResponse struct {
	Success       bool   `json:"success"`
	IsFavorited   bool   `json:"is_favorited"`
	Message       string `json:"message"`
	DestinationID int64  `json:"destination_id"`
}

func (c Client) ToggleFavorite(ctx context.Context, destinationID int64) (*ToggleFavoriteResponse, error) {
	var resp ToggleFavoriteResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/favorites/toggle/", nil, map[string]int64{"destination_id": destinationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FavoritesStatus maps destination id (as the API's string key) to favorited.
func (c Client) FavoritesStatus(ctx context.Context, destinationIDs []int64) (map[string]bool, error) {
	var resp struct {
		Success         bool            `json:"success"`
		FavoritesStatus map[string]bool `json:"favorites_status"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, "/favorites/status/", nil, map[string][]int64{"destination_ids": destinationIDs}, &resp); err != nil {
		return nil, err
	}
	return resp.FavoritesStatus, nil
}

func (c Client) FavoriteDestinations(ctx context.Context) ([]Destination, error) {
	var resp struct {
		Success   bool          `json:"success"`
		Count     int           `json:"count"`
		Favorites []Destination `json:"favorites"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, "/favorites/destinations/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Favorites, nil
}
