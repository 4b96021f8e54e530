// Package auth keeps the sync backend token in the system keyring.
package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	service = "vidora"
	user    = "backend-token"
)

// ErrNoToken is returned when no token has been stored yet.
var ErrNoToken = errors.New("no backend token stored, run `vidora auth set`")

// SetToken stores the backend bearer token.
func SetToken(token string) error {
	return keyring.Set(service, user, token)
}

// GetToken reads the backend bearer token.
func GetToken() (string, error) {
	token, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	return token, err
}

// DeleteToken forgets the stored token.
func DeleteToken() error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// TokenSource returns an oauth2 source for the stored token, or nil when none is stored.
func TokenSource() oauth2.TokenSource {
	token, err := GetToken()
	if err != nil || token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
