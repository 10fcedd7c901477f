package api

import (
	"context"
	"fmt"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the normalized login response.
type LoginResult struct {
	Token string
	User  models.User
}

type loginBody struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the operator profile.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	resp, err := c.Post(ctx, "/auth/login", creds)
	if err != nil {
		return LoginResult{}, err
	}
	body, err := decodeOne[loginBody](resp.Body, "data")
	if err != nil {
		return LoginResult{}, err
	}
	token := body.Token
	if token == "" {
		token = body.AccessToken
	}
	if token == "" {
		return LoginResult{}, fmt.Errorf("login: %w", ErrEmptyResponse)
	}
	res := LoginResult{Token: token}
	if body.User != nil {
		res.User = *body.User
	}
	return res, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	resp, err := c.Get(ctx, "/auth/me", nil)
	if err != nil {
		return models.User{}, err
	}
	return decodeOne[models.User](resp.Body, "user")
}
