// Package credman stores the API bearer token in the operating system
// keyring so it never sits in a config file.
package credman

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ErrNoToken is returned by Token when no token has been saved.
var ErrNoToken = errors.New("no token stored, run login first")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// TokenStore reads and writes the bearer token under a fixed
// service/account pair in the OS keyring.
type TokenStore struct {
	Service string
	Account string
}

// NewTokenStore returns the store used by the CLI.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		Service: "wetmap",
		Account: "api-token",
	}
}

// Save stores the token, replacing any previous one.
func (t *TokenStore) Save(token string) error {
	return keyringSet(t.Service, t.Account, token)
}

// Token returns the stored token. A missing entry maps to ErrNoToken.
func (t *TokenStore) Token() (string, error) {
	tok, err := keyringGet(t.Service, t.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}
	return tok, nil
}

// Delete removes the stored token. Deleting a missing token is not an
// error.
func (t *TokenStore) Delete() error {
	err := keyringDelete(t.Service, t.Account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
