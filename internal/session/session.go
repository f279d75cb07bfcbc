// Package session signs users in and out. It is the only writer of the
// Session slice of the store and of the persisted token.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/state"
	"github.com/five82/aula/internal/storage"
)

var (
	// ErrInvalidCredentials means the server rejected the login or issued no token.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput means the request failed local validation and was not sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable means the server could not be reached or answered garbage.
	ErrUnavailable = errors.New("server unavailable")
	// ErrNoSession means there is no stored token to resume.
	ErrNoSession = errors.New("no stored session")
	// ErrExpired means the stored token is past its exp claim.
	ErrExpired = errors.New("session expired")
	// ErrNotLoggedIn is returned by calls that need a signed-in user.
	ErrNotLoggedIn = errors.New("not logged in")
)

const (
	msgBadLogin    = "Bad email or password"
	msgUnavailable = "Could not reach the server, try again later"
	msgRegistered  = "Account created, you can now log in"
	msgProfileSave = "Profile updated"
	msgNotSaved    = "Signed in, but the session could not be saved"
)

// Client is the subset of the API the manager needs.
type Client interface {
	Login(ctx context.Context, creds lms.Credentials) (lms.LoginResponse, error)
	Protected(ctx context.Context, token string) (lms.ProtectedResponse, error)
	Register(ctx context.Context, reg lms.Registration) error
	UpdateUser(ctx context.Context, token string, id int64, update lms.ProfileUpdate) (lms.UserSummary, error)
	ListUsers(ctx context.Context, token string) ([]lms.UserSummary, error)
	DeleteUser(ctx context.Context, token string, id int64) error
}

// Manager performs session transitions against a store and durable storage.
type Manager struct {
	client   Client
	store    *state.Store
	storage  storage.Storage
	logger   zerolog.Logger
	validate *inputValidator
	now      func() time.Time
}

// NewManager wires a Manager.
func NewManager(client Client, store *state.Store, st storage.Storage, logger zerolog.Logger) *Manager {
	return &Manager{
		client:   client,
		store:    store,
		storage:  st,
		logger:   logger.With().Str("component", "session").Logger(),
		validate: newInputValidator(),
		now:      time.Now,
	}
}

// Current returns the session as the store holds it.
func (m *Manager) Current() state.Session {
	return m.store.Snapshot().Session
}

// Login authenticates creds. On success the token is persisted and the
// session is set in one dispatch. On failure, including a token that cannot
// be persisted, an alert is raised and the session is left as it was.
func (m *Manager) Login(ctx context.Context, creds lms.Credentials) (state.Session, error) {
	if err := m.validate.check(creds); err != nil {
		m.alert(state.AlertDanger, err.Error())
		return m.Current(), fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	resp, err := m.client.Login(ctx, creds)
	if err != nil {
		var apiErr *lms.APIError
		if errors.As(err, &apiErr) {
			m.logger.Info().Int("status", apiErr.Status).Msg("login rejected")
			m.alert(state.AlertDanger, orDefault(apiErr.Message, msgBadLogin))
			return m.Current(), fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		m.logger.Error().Err(err).Msg("login request failed")
		m.alert(state.AlertDanger, msgUnavailable)
		return m.Current(), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.Token == "" {
		m.logger.Warn().Msg("login response carried no token")
		m.alert(state.AlertDanger, orDefault(resp.Message, msgBadLogin))
		return m.Current(), ErrInvalidCredentials
	}

	user := resp.User
	if claims, err := ParseClaims(resp.Token); err == nil {
		user = claims.fill(user)
	} else {
		m.logger.Debug().Err(err).Msg("token claims unreadable")
	}
	if user.Email == "" {
		user.Email = creds.Email
	}

	// The stored token and the session change together or not at all.
	if err := m.storage.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		m.logger.Error().Err(err).Msg("persist token")
		m.alert(state.AlertDanger, msgNotSaved)
		return m.Current(), fmt.Errorf("%w: persist token: %w", ErrUnavailable, err)
	}
	if err := m.establish(resp.Token, user); err != nil {
		m.forget(ctx)
		return m.Current(), err
	}
	m.logger.Info().Int64("user_id", user.ID).Msg("logged in")
	return m.Current(), nil
}

// Logout clears the session in one dispatch and removes the stored token. A
// storage failure is logged; the in-memory logout still happens.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.storage.Remove(ctx, storage.KeyToken); err != nil {
		m.logger.Warn().Err(err).Msg("remove stored token")
	}
	if err := m.store.Dispatch(
		state.SetToken{},
		state.SetUser{},
		state.SetLoggedIn{LoggedIn: false},
	); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info().Msg("logged out")
	return nil
}

// Resume restores a session from the stored token. The token must not be
// expired and the server must accept it. Rejected or expired tokens are
// removed from storage; on transport failure the token is kept.
func (m *Manager) Resume(ctx context.Context) (state.Session, error) {
	token, err := m.storage.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && token == "") {
		return m.Current(), ErrNoSession
	}
	if err != nil {
		return m.Current(), fmt.Errorf("read stored token: %w", err)
	}

	claims, err := ParseClaims(token)
	if err != nil {
		m.forget(ctx)
		return m.Current(), fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if claims.Expired(m.now()) {
		m.forget(ctx)
		return m.Current(), ErrExpired
	}

	if _, err := m.client.Protected(ctx, token); err != nil {
		var apiErr *lms.APIError
		if errors.As(err, &apiErr) {
			m.forget(ctx)
			return m.Current(), fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return m.Current(), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := m.establish(token, claims.fill(lms.UserSummary{})); err != nil {
		return m.Current(), err
	}
	m.logger.Info().Int64("user_id", claims.UserID).Msg("session resumed")
	return m.Current(), nil
}

// Register creates an account. Either outcome raises an alert.
func (m *Manager) Register(ctx context.Context, reg lms.Registration) error {
	if err := m.validate.check(reg); err != nil {
		m.alert(state.AlertDanger, err.Error())
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := m.client.Register(ctx, reg); err != nil {
		return m.fail("register", err)
	}
	m.alert(state.AlertSuccess, msgRegistered)
	return nil
}

// UpdateProfile saves profile fields and replaces the current user with the
// server's copy.
func (m *Manager) UpdateProfile(ctx context.Context, update lms.ProfileUpdate) (lms.UserSummary, error) {
	sess := m.Current()
	if !sess.LoggedIn {
		return lms.UserSummary{}, ErrNotLoggedIn
	}
	if err := m.validate.check(update); err != nil {
		m.alert(state.AlertDanger, err.Error())
		return sess.CurrentUser, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := m.client.UpdateUser(ctx, sess.Token, sess.CurrentUser.ID, update)
	if err != nil {
		return sess.CurrentUser, m.fail("update profile", err)
	}
	if user.ID == 0 {
		user.ID = sess.CurrentUser.ID
	}
	if err := m.store.Dispatch(state.SetUser{User: user}, state.Notify(state.AlertSuccess, msgProfileSave)); err != nil {
		return sess.CurrentUser, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (m *Manager) establish(token string, user lms.UserSummary) error {
	if err := m.store.Dispatch(
		state.SetToken{Token: token},
		state.SetUser{User: user},
		state.SetLoggedIn{LoggedIn: true},
		state.ClearAlert(),
	); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

func (m *Manager) forget(ctx context.Context) {
	if err := m.storage.Remove(ctx, storage.KeyToken); err != nil {
		m.logger.Warn().Err(err).Msg("remove stored token")
	}
}

// fail raises a danger alert for err and classifies it.
func (m *Manager) fail(op string, err error) error {
	var apiErr *lms.APIError
	if errors.As(err, &apiErr) {
		m.logger.Info().Int("status", apiErr.Status).Str("op", op).Msg("request rejected")
		m.alert(state.AlertDanger, orDefault(apiErr.Message, fmt.Sprintf("Could not %s", op)))
		return fmt.Errorf("%s: %w", op, err)
	}
	m.logger.Error().Err(err).Str("op", op).Msg("request failed")
	m.alert(state.AlertDanger, msgUnavailable)
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (m *Manager) alert(color, text string) {
	if err := m.store.Dispatch(state.Notify(color, text)); err != nil {
		m.logger.Error().Err(err).Msg("dispatch alert")
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
