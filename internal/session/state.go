package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

const SchemaVersion = 1

var ErrStateNotFound = errors.New("session state not found")

// State is the persisted login session.
type State struct {
	SchemaVersion int               `json:"schema_version"`
	Provider      string            `json:"provider"`
	AccessToken   string            `json:"access_token"`
	Expiry        time.Time         `json:"expiry"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// StateFromToken captures a token and the named extra fields.
func StateFromToken(provider string, token *oauth2.Token, extraKeys []string) State {
	state := State{
		SchemaVersion: SchemaVersion,
		Provider:      provider,
		AccessToken:   token.AccessToken,
		Expiry:        token.Expiry,
	}
	for _, key := range extraKeys {
		value, ok := token.Extra(key).(string)
		if !ok || value == "" {
			continue
		}
		if state.Extra == nil {
			state.Extra = make(map[string]string)
		}
		state.Extra[key] = value
	}
	return state
}

// Token rebuilds the oauth2 token, extras included.
func (s State) Token() *oauth2.Token {
	token := &oauth2.Token{AccessToken: s.AccessToken, Expiry: s.Expiry}
	if len(s.Extra) == 0 {
		return token
	}
	extra := make(map[string]any, len(s.Extra))
	for k, v := range s.Extra {
		extra[k] = v
	}
	return token.WithExtra(extra)
}

func (s State) Validate() error {
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version: %d", s.SchemaVersion)
	}
	if s.AccessToken == "" {
		return fmt.Errorf("state missing access_token")
	}
	return nil
}

func LoadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, ErrStateNotFound
		}
		return State{}, fmt.Errorf("read state: %w", err)
	}
	return DecodeState(data)
}

func DecodeState(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return State{}, err
	}
	return state, nil
}

func WriteState(path string, state State) error {
	if state.SchemaVersion == 0 {
		state.SchemaVersion = SchemaVersion
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	return nil
}
