// internal/app/store/auth/authstore.go
package authstore

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/decode"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

// Credentials is the sign-in form.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration is the sign-up form. The backend username is the email.
type Registration struct {
	Email    string
	Password string
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	CurrentPassword      string `json:"currentPassword"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

type Store struct {
	c *apiclient.Client
}

func New(c *apiclient.Client) *Store {
	return &Store{c: c}
}

// SignIn exchanges credentials for a token. A 400 means the identifier or
// password is wrong and comes back as KindInvalidCredentials. The caller
// stores the token; SignIn never does.
func (s *Store) SignIn(ctx context.Context, cred Credentials) (models.AuthResponse, error) {
	cred.Identifier = strings.TrimSpace(cred.Identifier)
	return apiclient.Do(ctx, s.c, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/auth/local",
		Body:        cred,
		StatusKinds: map[int]apiclient.Kind{http.StatusBadRequest: apiclient.KindInvalidCredentials},
	}, models.DecodeAuthResponse)
}

// SignUp registers a new account and returns its token.
func (s *Store) SignUp(ctx context.Context, reg Registration) (models.AuthResponse, error) {
	email := strings.TrimSpace(reg.Email)
	return apiclient.Do(ctx, s.c, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/local/register",
		Body: map[string]string{
			"username": email,
			"email":    email,
			"password": reg.Password,
		},
	}, models.DecodeAuthResponse)
}

// CurrentUser returns the signed-in user. Without a token it reports signed
// out without calling the backend.
func (s *Store) CurrentUser(ctx context.Context, ts apiclient.TokenSource) (models.AuthState, error) {
	u, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:        "/users/me",
		Auth:        ts,
		RequireAuth: true,
	}, models.DecodeUser)
	switch {
	case errors.Is(err, apiclient.ErrUnauthenticated):
		return models.AuthState{SignedIn: false}, nil
	case err != nil:
		return models.AuthState{}, err
	}
	return models.AuthState{SignedIn: true, User: u}, nil
}

// ChangePassword changes the signed-in user's password. A 400 means the current
// password was wrong and comes back as KindIncorrectPassword.
func (s *Store) ChangePassword(ctx context.Context, ts apiclient.TokenSource, pc PasswordChange) (models.AuthResponse, error) {
	return apiclient.Do(ctx, s.c, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/auth/change-password",
		Body:        pc,
		Auth:        ts,
		RequireAuth: true,
		StatusKinds: map[int]apiclient.Kind{http.StatusBadRequest: apiclient.KindIncorrectPassword},
	}, decodePasswordChanged)
}

// decodePasswordChanged accepts either a fresh `{jwt, user}` or a bare user,
// depending on backend version.
var decodePasswordChanged decode.Decoder[models.AuthResponse] = func(v any, p decode.Path) (models.AuthResponse, error) {
	if m, ok := v.(map[string]any); ok {
		if _, hasJWT := m["jwt"]; hasJWT {
			return models.DecodeAuthResponse(v, p)
		}
	}
	u, err := models.DecodeUser(v, p)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{User: u}, nil
}
