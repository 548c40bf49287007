package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pakmandi/bazaar/internal/capture"
	"golang.org/x/term"
)

// Store holds the generation API key
type Store struct {
	mu  sync.RWMutex
	key string
}

func NewStore(key string) *Store {
	return &Store{key: strings.TrimSpace(key)}
}

// FromEnv builds a store from the first non-empty variable
func FromEnv(names ...string) *Store {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return NewStore(v)
		}
	}
	return NewStore("")
}

func (s *Store) Set(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = strings.TrimSpace(key)
}

// Clear forgets the key, typically after the provider rejected it
func (s *Store) Clear() {
	s.Set("")
}

func (s *Store) HasCredential(context.Context) bool {
	return s.Credential() != ""
}

func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Select has no interactive step; without a key the attempt fails as an invalid credential
func (s *Store) Select(context.Context) error {
	if s.Credential() != "" {
		return nil
	}
	return fmt.Errorf("%w: no API key has been set", capture.ErrInvalidCredential)
}

// Prompt asks for the key on a terminal when the store is empty
type Prompt struct {
	Store *Store
	In    io.Reader
	Out   io.Writer

	// reader is created on first use and reused by later prompts
	reader *bufio.Reader
}

func NewPrompt(store *Store, in io.Reader, out io.Writer) *Prompt {
	return &Prompt{Store: store, In: in, Out: out}
}

func (p *Prompt) HasCredential(ctx context.Context) bool {
	return p.Store.HasCredential(ctx)
}

func (p *Prompt) Credential() string {
	return p.Store.Credential()
}

// Select reads a key. An empty answer cancels.
func (p *Prompt) Select(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprint(p.Out, "Enter your Gemini API key (leave empty to cancel): ")
	key, err := p.read()
	fmt.Fprintln(p.Out)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return capture.ErrUserCancelled
	}
	p.Store.Set(key)
	return nil
}

func (p *Prompt) read() (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return p.reader.ReadString('\n')
}
