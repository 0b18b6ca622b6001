package cli

import (
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/filex"
)

// TokenStore keeps the bearer token in a file between invocations.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the stored token, or "" when there is none.
func (s *TokenStore) Load() (string, error) {
	data, err := filex.ReadSecret(s.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *TokenStore) Save(token string) error {
	return filex.WriteSecret(s.path, []byte(token+"\n"))
}

func (s *TokenStore) Clear() error {
	return filex.Remove(s.path)
}
