package travelapi

import (
	"context"
	"fmt"
	"net/http"
)

const refreshPath = "/auth/refresh/"

type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by both login and register.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password_confirm"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("missing email or password")
	}
	var resp LoginResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/login/", nil, creds, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, fmt.Errorf("login returned empty access token")
	}
	return &resp, nil
}

func (c Client) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/register/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c Client) Logout(ctx context.Context) error {
	if c.Tokens == nil {
		return nil
	}
	refresh := c.Tokens.RefreshToken()
	defer c.Tokens.Clear()
	if refresh == "" {
		return nil
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/auth/logout/", nil, map[string]string{"refresh": refresh}, nil)
	return err
}

func (c Client) Profile(ctx context.Context) (*User, error) {
	var u User
	if _, err := c.doJSON(ctx, http.MethodGet, "/auth/profile/", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh exchanges the refresh token for a new access token and stores it in c.Tokens.
func (c Client) Refresh(ctx context.Context) error {
	if c.Tokens == nil || c.Tokens.RefreshToken() == "" {
		return fmt.Errorf("no refresh token")
	}
	var resp struct {
		Access string `json:"access"`
	}
	_, err := c.doJSON(ctx, http.MethodPost, refreshPath, nil, map[string]string{"refresh": c.Tokens.RefreshToken()}, &resp)
	if err != nil {
		return err
	}
	if resp.Access == "" {
		return fmt.Errorf("refresh returned empty access token")
	}
	c.Tokens.SetAccessToken(resp.Access)
	return nil
}
