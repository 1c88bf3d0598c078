package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session signed out")
	ErrEmailTaken         = errors.New("email already registered")
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

type SessionEvent struct {
	Type    EventType
	Session *Session
}

// Subscription is returned by OnSessionChange. Unsubscribe is safe to call twice.
type Subscription struct {
	p    *Provider
	id   int
	once sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.p.mu.Lock()
		delete(s.p.listeners, s.id)
		s.p.mu.Unlock()
	})
}

type Provider struct {
	users       UserStore
	tokens      *Tokens
	revocations Revocations

	mu        sync.Mutex
	listeners map[int]func(SessionEvent)
	nextID    int
}

func NewProvider(users UserStore, tokens *Tokens, revocations Revocations) *Provider {
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}
	return &Provider{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		listeners:   map[int]func(SessionEvent){},
	}
}

// SignIn checks the password and issues a fresh session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := p.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s := sessionFromClaims(token, claims)
	p.emit(SessionEvent{Type: EventSignedIn, Session: s})
	return s, nil
}

// GetSession resolves a bearer token. Expired, forged and signed-out tokens are errors.
func (p *Provider) GetSession(ctx context.Context, token string) (*Session, error) {
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return sessionFromClaims(token, claims), nil
}

func (p *Provider) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := p.revocations.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
		return err
	}
	p.emit(SessionEvent{Type: EventSignedOut, Session: s})
	return nil
}

// Register creates a staff account. Roles other than admin fall back to cashier.
func (p *Provider) Register(ctx context.Context, email, password, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if _, err := p.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if role != RoleAdmin {
		role = RoleCashier
	}

	user := &models.User{Email: email, PasswordHash: string(hashed), Role: role}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin seeds the first admin account. An existing account is left untouched.
func (p *Provider) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if _, err := p.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}
	if _, err := p.Register(ctx, email, password, RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// OnSessionChange registers fn for sign-in and sign-out events.
func (p *Provider) OnSessionChange(fn func(SessionEvent)) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	p.listeners[p.nextID] = fn
	return &Subscription{p: p, id: p.nextID}
}

func (p *Provider) emit(ev SessionEvent) {
	p.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func sessionFromClaims(token string, c *Claims) *Session {
	s := &Session{
		Token:   token,
		TokenID: c.ID,
		UserID:  c.UserID,
		Email:   c.Email,
		Role:    c.Role,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
