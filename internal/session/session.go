// Package session holds the bearer token shared by every backend call.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"recruit-console/internal/localstore"
)

// Store is the auth session service. A nil token means "not logged in".
type Store interface {
	Token() *oauth2.Token
	SetToken(tok *oauth2.Token) error
	Clear() error
}

// Memory keeps the token for the life of the process.
type Memory struct {
	mu  sync.RWMutex
	tok *oauth2.Token
}

func NewMemory(tok *oauth2.Token) *Memory {
	return &Memory{tok: tok}
}

func (m *Memory) Token() *oauth2.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok
}

func (m *Memory) SetToken(tok *oauth2.Token) error {
	m.mu.Lock()
	m.tok = tok
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.SetToken(nil)
}

// File persists the token as JSON so it survives between invocations.
type File struct {
	path string

	mu     sync.Mutex
	loaded bool
	tok    *oauth2.Token
}

func NewFile(path string) *File {
	return &File{path: strings.TrimSpace(path)}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Token() *oauth2.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		f.tok = f.read()
		f.loaded = true
	}
	return f.tok
}

func (f *File) read() *oauth2.Token {
	var tok oauth2.Token
	if err := localstore.ReadJSON(f.path, &tok); err != nil {
		return nil
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil
	}
	return &tok
}

func (f *File) SetToken(tok *oauth2.Token) error {
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return f.Clear()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := localstore.WriteJSON(f.path, tok, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	f.tok = tok
	f.loaded = true
	return nil
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tok = nil
	f.loaded = true
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// FromAuthResponse converts a login response into a token.
func FromAuthResponse(accessToken, tokenType string) *oauth2.Token {
	if strings.TrimSpace(tokenType) == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: tokenType}
}
