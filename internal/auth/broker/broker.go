// Package broker owns the OAuth token lifecycle on the plugin side: it hands
// out the cached access token, runs at most one authorization flow at a
// time, and invalidates the cache when a downstream call reports the token
// dead.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	figmaauth "github.com/figsum/figsum/internal/auth/figma"
	"github.com/figsum/figsum/internal/auth/pkce"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/db"
	"github.com/figsum/figsum/internal/upstream"
	"github.com/google/uuid"
)

// State describes where the broker is in the authorization lifecycle.
type State int

const (
	StateNoToken State = iota
	StateAwaitingAuthorization
	StateExchanging
	StateHasToken
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateAwaitingAuthorization:
		return "awaiting_authorization"
	case StateExchanging:
		return "exchanging"
	case StateHasToken:
		return "has_token"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthorizationPending means an authorization flow is already in
	// flight; a second one would open a duplicate consent window.
	ErrAuthorizationPending = errors.New("an authorization flow is already in progress")

	// ErrAuthorizationCancelled means the user closed the consent window
	// or otherwise abandoned the flow.
	ErrAuthorizationCancelled = errors.New("authorization was cancelled")

	// ErrStateMismatch means the callback carried a state value that does
	// not belong to the pending session.
	ErrStateMismatch = errors.New("authorization state mismatch")
)

// Notifier is how the broker asks the UI to open the consent page.
type Notifier interface {
	AuthorizationRequired(authURL string)
}

// CallbackEvent is the payload delivered when the redirect completes. The
// relay performed the code exchange, so the event already carries the token.
type CallbackEvent struct {
	Code        string
	State       string
	AccessToken string
}

type session struct {
	verifier string
	state    string
}

type result struct {
	token string
	err   error
}

// Broker coordinates token acquisition. One pending flow at most; the
// pending channel is single-slot and resolved exactly once.
type Broker struct {
	store    *db.Store
	cfg      config.Figma
	notifier Notifier

	mu      sync.Mutex
	state   State
	session *session
	pending chan result
}

// New creates a broker over the given credential store.
func New(store *db.Store, cfg config.Figma, notifier Notifier) *Broker {
	return &Broker{store: store, cfg: cfg, notifier: notifier}
}

// State reports the current lifecycle state.
func (b *Broker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// EnsureAccessToken returns the cached token immediately when one exists; no
// validation call is made. Otherwise it starts an authorization flow and
// suspends until the callback arrives, the context expires, or the flow is
// cancelled.
func (b *Broker) EnsureAccessToken(ctx context.Context) (string, error) {
	if token, err := b.store.AccessToken(); err != nil {
		return "", fmt.Errorf("failed to read cached token: %w", err)
	} else if token != "" {
		b.setState(StateHasToken)
		return token, nil
	}

	pending, authURL, err := b.beginAuthorization()
	if err != nil {
		return "", err
	}

	log.Printf("[OAuth] Awaiting authorization callback")
	b.notifier.AuthorizationRequired(authURL)

	select {
	case res := <-pending:
		b.clearSession()
		if res.err != nil {
			b.setState(StateNoToken)
			return "", res.err
		}
		if err := b.store.SetAccessToken(res.token); err != nil {
			b.setState(StateNoToken)
			return "", fmt.Errorf("failed to persist access token: %w", err)
		}
		b.setState(StateHasToken)
		log.Printf("[OAuth] Access token acquired and cached")
		return res.token, nil
	case <-ctx.Done():
		b.clearSession()
		b.setState(StateNoToken)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: authorization callback never arrived", upstream.ErrTimeout)
		}
		return "", ErrAuthorizationCancelled
	}
}

func (b *Broker) beginAuthorization() (chan result, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != nil {
		return nil, "", ErrAuthorizationPending
	}

	codes, err := pkce.Generate()
	if err != nil {
		return nil, "", err
	}
	sess := &session{verifier: codes.Verifier, state: uuid.NewString()}
	pending := make(chan result, 1)

	b.session = sess
	b.pending = pending
	b.state = StateAwaitingAuthorization

	return pending, figmaauth.AuthCodeURL(b.cfg, sess.state, codes), nil
}

// Resolve delivers the callback event to the pending flow. A second
// delivery, or one arriving with no flow pending, is ignored.
func (b *Broker) Resolve(ev CallbackEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil || b.session == nil {
		log.Printf("[OAuth] Ignoring callback with no pending authorization")
		return
	}
	b.state = StateExchanging

	if ev.State != b.session.state {
		b.deliverLocked(result{err: ErrStateMismatch})
		return
	}
	if ev.AccessToken == "" {
		b.deliverLocked(result{err: fmt.Errorf("authorization callback carried no access token")})
		return
	}
	b.deliverLocked(result{token: ev.AccessToken})
}

// Cancel aborts the pending flow, resolving the waiting call with
// ErrAuthorizationCancelled. Used when the consent window is closed.
func (b *Broker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return
	}
	b.deliverLocked(result{err: ErrAuthorizationCancelled})
}

// deliverLocked resolves the pending flow exactly once. Callers hold b.mu.
func (b *Broker) deliverLocked(res result) {
	select {
	case b.pending <- res:
	default:
	}
	b.pending = nil
	b.session = nil
}

// Invalidate drops the cached token after a downstream 401 so the next
// EnsureAccessToken re-enters authorization instead of looping on a dead
// token.
func (b *Broker) Invalidate() error {
	b.setState(StateNoToken)
	log.Printf("[OAuth] Cached token invalidated")
	return b.store.DeleteAccessToken()
}

func (b *Broker) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Broker) clearSession() {
	b.mu.Lock()
	b.pending = nil
	b.session = nil
	b.mu.Unlock()
}
