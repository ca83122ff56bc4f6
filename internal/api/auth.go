package api

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"echolog/internal/domain"
)

// loginResponse matches the backend Google auth exchange response.
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges a Google ID token for a backend session.
func (c *Client) Login(ctx context.Context, googleIDToken string) (domain.Session, error) {
	if strings.TrimSpace(googleIDToken) == "" {
		return domain.Session{}, &Error{
			Kind:    KindValidationError,
			Message: "login requires a Google ID token",
		}
	}

	in := struct {
		Token string `json:"token"`
	}{Token: googleIDToken}

	var out loginResponse
	if err := c.postJSON(ctx, domain.Session{}, "/auth/google", in, &out); err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		Token:     out.Token,
		UserName:  out.User.Name,
		Email:     out.User.Email,
		ClientID:  uuid.New().String(),
		ExpiresAt: out.ExpiresAt,
	}, nil
}

// VerifyResponse reports the authenticated user for a valid session.
type VerifyResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Verify checks the session against the backend. An expired or revoked
// token surfaces as ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, session domain.Session) (VerifyResponse, error) {
	var out VerifyResponse
	if err := c.getJSON(ctx, session, "/auth/verify", &out); err != nil {
		return VerifyResponse{}, err
	}
	return out, nil
}
