// Package credentials abstracts retrieval of the storage password. The
// system has no opinion on where the secret lives; it only needs a string
// back before any row processing starts.
package credentials

import (
	"fmt"
	"os"
	"strings"
)

type Source interface {
	Password() (string, error)
}

// Env reads the password from the named environment variable.
type Env string

func (e Env) Password() (string, error) {
	v, ok := os.LookupEnv(string(e))
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %s is not set", string(e))
	}
	return v, nil
}

// File reads the password from a file, trimming surrounding whitespace.
type File string

func (f File) Password() (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}
	password := strings.TrimSpace(string(data))
	if password == "" {
		return "", fmt.Errorf("password file %s is empty", string(f))
	}
	return password, nil
}

// Static wraps an already-known password, mainly for tests and local
// sqlite setups that need none.
type Static string

func (s Static) Password() (string, error) {
	return string(s), nil
}
