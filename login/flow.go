package login

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/authapi"
	"go.uber.org/zap"
)

// DemoToken is the token saved by [Flow.EnterAnyway].
const DemoToken = "demo-session-token"

const (
	MsgUserNotFound       = "User not found. Please register first."
	MsgInvalidPassword    = "Invalid password."
	MsgLoginFailed        = "Login failed. Please try again."
	MsgRegistered         = "Registration successful. You can now log in."
	MsgRegistrationFailed = "Registration failed. Please try again."
)

// ErrSubmitting is returned by Submit while another submission is in flight.
var ErrSubmitting = errors.New("submission already in progress")

// Mode is the form the flow currently shows.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Outcome is the result of one Submit.
type Outcome int

const (
	// OutcomeInvalid means the form was not sent.
	OutcomeInvalid Outcome = iota
	// OutcomeAuthenticated means the session was saved and the view navigated.
	OutcomeAuthenticated
	// OutcomeRegistered means the account exists and the flow is back in login mode.
	OutcomeRegistered
	// OutcomeFailed means the service refused or could not be reached.
	OutcomeFailed
)

// Authenticator is the part of [authapi.Client] the flow needs.
type Authenticator interface {
	Login(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error)
	Register(ctx context.Context, reg authapi.Registration) error
}

// Flow drives the login page.
type Flow struct {
	store    *portalauth.SessionStore
	api      Authenticator
	notifier Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	mode       Mode
	submitting bool
	bypass     bool
}

// NewFlow returns a flow in login mode. A nil notifier drops notices and a
// nil logger logs nothing.
func NewFlow(store *portalauth.SessionStore, api Authenticator, notifier Notifier, logger *zap.Logger) (*Flow, error) {
	if store == nil {
		return nil, portalauth.ErrNilStore
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		store:    store,
		api:      api,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Mode returns the current mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Submitting reports whether a submission is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// BypassOffered reports whether the last login timed out, in which case the
// page offers [Flow.EnterAnyway].
func (f *Flow) BypassOffered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bypass
}

// SwitchMode toggles between login and register.
func (f *Flow) SwitchMode() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}
	f.bypass = false
}

func (f *Flow) setMode(m Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
	f.bypass = false
}

// Submit sends the form in the current mode. An invalid form returns
// OutcomeInvalid and sends nothing. The returned error is the service error
// behind an OutcomeFailed, after it has been reported to the Notifier.
func (f *Flow) Submit(ctx context.Context, form Form) (Outcome, error) {
	if !form.CanSubmit() {
		return OutcomeInvalid, nil
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return OutcomeInvalid, ErrSubmitting
	}
	f.submitting = true
	mode := f.mode
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if mode == ModeRegister {
		return f.register(ctx, form)
	}
	return f.login(ctx, form)
}

func (f *Flow) login(ctx context.Context, form Form) (Outcome, error) {
	resp, err := f.api.Login(ctx, authapi.Credentials{
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		f.logger.Warn("login failed", zap.String("email", form.Email), zap.Error(err))

		switch {
		case errors.Is(err, authapi.ErrUserNotFound):
			f.notify(LevelError, MsgUserNotFound)
			f.setMode(ModeRegister)
		case errors.Is(err, authapi.ErrInvalidCredentials):
			f.notify(LevelError, MsgInvalidPassword)
		default:
			f.notify(LevelError, MsgLoginFailed)
			if isTimeout(err) {
				f.mu.Lock()
				f.bypass = true
				f.mu.Unlock()
			}
		}
		return OutcomeFailed, err
	}

	if err := f.store.OnAuthenticated(ctx, resp.Token, resp.Role, resp.Name); err != nil {
		f.logger.Warn("session save failed", zap.Error(err))
		// Only a missing token write leaves the view where it was; a lost
		// role or name still counts as logged in.
		if errors.Is(err, portalauth.ErrSessionNotSaved) || errors.Is(err, portalauth.ErrEmptyToken) {
			f.notify(LevelError, MsgLoginFailed)
			return OutcomeFailed, err
		}
	}
	return OutcomeAuthenticated, nil
}

func (f *Flow) register(ctx context.Context, form Form) (Outcome, error) {
	err := f.api.Register(ctx, authapi.Registration{
		Name:              form.CandidateName,
		Email:             form.Email,
		Password:          form.Password,
		PortalAccessLevel: form.Level().String(),
	})
	if err != nil {
		f.logger.Warn("registration failed", zap.String("email", form.Email), zap.Error(err))

		msg := authapi.ServerMessage(err)
		if msg == "" {
			msg = MsgRegistrationFailed
		}
		f.notify(LevelError, msg)
		return OutcomeFailed, err
	}

	f.notify(LevelSuccess, MsgRegistered)
	f.setMode(ModeLogin)
	return OutcomeRegistered, nil
}

// EnterAnyway opens a demo session without the auth service, using the
// form's access level and display name.
func (f *Flow) EnterAnyway(ctx context.Context, form Form) error {
	return f.store.OnAuthenticated(ctx, DemoToken, form.Level().String(), form.DisplayName())
}

func (f *Flow) notify(level Level, msg string) {
	f.notifier.Notify(Notice{Level: level, Message: msg})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
