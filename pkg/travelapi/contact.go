package travelapi

import (
	"context"
	"net/http"
)

type ContactRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Subject    string `json:"subject"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message"`
	Newsletter bool   `json:"newsletter"`
}

type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitContact posts the public contact form; no session is required.
func (c Client) SubmitContact(ctx context.Context, req ContactRequest) (*ContactResponse, error) {
	c.Tokens = nil
	var resp ContactResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/contacts/submit/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
