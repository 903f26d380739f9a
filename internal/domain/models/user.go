// internal/domain/models/user.go
package models

import "github.com/dalemusser/fwsm/internal/domain/decode"

// User is the signed-in account as the backend reports it. It only exists while
// a valid token is held.
type User struct {
	ID       int
	Email    string
	Username *string
}

// AuthResponse is returned by sign-in and sign-up.
type AuthResponse struct {
	JWT  string
	User User
}

// AuthState is the result of asking "who is signed in?". The zero value means
// nobody is, which is not an error.
type AuthState struct {
	SignedIn bool
	User     User
}

// DecodeUser validates a user object.
var DecodeUser = decode.Object(func(o *decode.Obj) User {
	return User{
		ID:       decode.Field(o, "id", decode.Positive()),
		Email:    decode.Field(o, "email", decode.String()),
		Username: decode.Field(o, "username", decode.Optional(decode.String())),
	}
})

// DecodeAuthResponse validates the `{ jwt, user }` document.
var DecodeAuthResponse = decode.Object(func(o *decode.Obj) AuthResponse {
	r := AuthResponse{
		JWT:  decode.Field(o, "jwt", decode.String()),
		User: decode.Field(o, "user", DecodeUser),
	}
	o.Check(r.JWT != "", "jwt", "non-empty token", "empty string")
	return r
})
