package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Manager caches a vendor login session. Logins go through the wrapped
// token source only when the cached token is missing or expired; every
// fresh login is written to the state file and mirrored to blob storage.
type Manager struct {
	decl      Declaration
	login     oauth2.TokenSource
	blobStore BlobStore

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewManager restores any cached session and wraps login. blobStore may be nil.
func NewManager(decl Declaration, login oauth2.TokenSource, blobStore BlobStore) (*Manager, error) {
	if err := decl.validate(); err != nil {
		return nil, err
	}
	if login == nil {
		return nil, fmt.Errorf("login token source is required")
	}

	m := &Manager{decl: decl, login: login, blobStore: blobStore}

	initial, err := m.loadInitialState(context.Background())
	if err != nil {
		return nil, err
	}
	m.source = oauth2.ReuseTokenSource(initial, &persistingSource{m: m})
	if initial.Valid() {
		tokenValid.WithLabelValues(decl.Provider).Set(1)
	}
	return m, nil
}

// Token returns the cached token or logs in again.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	source := m.source
	m.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		tokenValid.WithLabelValues(m.decl.Provider).Set(0)
		return nil, err
	}
	tokenValid.WithLabelValues(m.decl.Provider).Set(1)
	return token, nil
}

// Invalidate drops the cached token so the next call logs in again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.source = oauth2.ReuseTokenSource(nil, &persistingSource{m: m})
	m.mu.Unlock()
	tokenValid.WithLabelValues(m.decl.Provider).Set(0)
}

type persistingSource struct {
	m *Manager
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	m := p.m
	token, err := m.login.Token()
	if err != nil {
		loginFailure.WithLabelValues(m.decl.Provider).Inc()
		return nil, err
	}
	loginSuccess.WithLabelValues(m.decl.Provider).Inc()

	state := StateFromToken(m.decl.Provider, token, m.decl.ExtraKeys)
	if err := WriteState(m.decl.StatePath, state); err != nil {
		log.Warn().Err(err).Str("provider", m.decl.Provider).Msg("persist session state")
	}
	m.mirror(context.Background(), state)
	return token, nil
}

func (m *Manager) loadInitialState(ctx context.Context) (*oauth2.Token, error) {
	local, localErr := LoadState(m.decl.StatePath)
	if localErr == nil {
		if err := checkStateFile(m.decl.StatePath); err != nil {
			return nil, err
		}
		m.mirror(ctx, local)
		return local.Token(), nil
	}

	blob, blobErr := m.loadFromBlob(ctx)
	if blobErr == nil {
		if err := WriteState(m.decl.StatePath, blob); err != nil {
			return nil, err
		}
		return blob.Token(), nil
	}

	if !errors.Is(localErr, ErrStateNotFound) {
		// A corrupt local file is replaced by the next login.
		log.Warn().Err(localErr).Str("provider", m.decl.Provider).Msg("ignoring session state")
	}
	if blobErr != nil && !errors.Is(blobErr, ErrBlobNotFound) {
		log.Warn().Err(blobErr).Str("provider", m.decl.Provider).Msg("session blob unavailable")
	}
	return nil, nil
}

func (m *Manager) loadFromBlob(ctx context.Context) (State, error) {
	if m.blobStore == nil {
		return State{}, ErrBlobNotFound
	}
	data, err := m.blobStore.Load(ctx, m.decl.Provider)
	if err != nil {
		return State{}, err
	}
	return DecodeState(data)
}

func (m *Manager) mirror(ctx context.Context, state State) {
	if m.blobStore == nil {
		return
	}
	if err := m.persistBlob(ctx, state); err != nil {
		remotePersistOK.WithLabelValues(m.decl.Provider).Set(0)
		log.Warn().Err(err).Str("provider", m.decl.Provider).Msg("mirror session state")
		return
	}
	remotePersistOK.WithLabelValues(m.decl.Provider).Set(1)
}

func (m *Manager) persistBlob(ctx context.Context, state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return m.blobStore.Save(ctx, m.decl.Provider, data)
}

func checkStateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0o600 {
		return fmt.Errorf("state file %s must have 0600 permissions", path)
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if int(stat.Uid) != os.Geteuid() {
			return fmt.Errorf("state file %s must be owned by uid %d", path, os.Geteuid())
		}
	}
	return nil
}
