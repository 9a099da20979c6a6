// Package authflow runs the sign-in, sign-up and sign-out actions and
// reports their outcome to the user. Navigation after a successful action is
// left to the gates, which observe the session store.
package authflow

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tcash-app/tcash/internal/auth"
	"github.com/tcash-app/tcash/internal/model"
)

// User facing texts.
const (
	TitleSignInError  = "Sign In Error"
	MsgVerifyEmail    = "Please check your inbox for email verification!"
	TitleSignOut      = "Sign Out"
	MsgConfirmSignOut = "Are you sure you want to sign out?"
	LabelCancel       = "Cancel"
	LabelSignOut      = "Sign Out"
	TitleSignOutError = "Sign Out Error"
)

// Authenticator is the part of the auth client the flows call.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.SignUpResult, error)
	SignOut(ctx context.Context) error
}

// Prompter shows blocking alerts and two-choice confirmations.
type Prompter interface {
	Alert(title, message string)
	Confirm(title, message, cancel, ok string) bool
}

// Banner is the inline, dismissible message under the credential form.
type Banner struct {
	mu   sync.Mutex
	text string
}

// Text returns the message, or "" when there is none.
func (b *Banner) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Dismiss clears the message.
func (b *Banner) Dismiss() {
	b.set("")
}

func (b *Banner) set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

// SignUpResult is the outcome of a successful SignUp.
type SignUpResult struct {
	// NeedsVerification is set when no session was issued.
	NeedsVerification bool
}

// Flow runs the credential actions.
type Flow struct {
	auth   Authenticator
	prompt Prompter
	logger zerolog.Logger
	banner Banner
}

// New creates a Flow.
func New(a Authenticator, prompt Prompter, logger zerolog.Logger) *Flow {
	return &Flow{auth: a, prompt: prompt, logger: logger}
}

// Banner returns the inline message shared by the sign-in and sign-up forms.
func (f *Flow) Banner() *Banner {
	return &f.banner
}

// SignIn signs in with the given credentials, passed on unvalidated.
// A failure is shown as an alert and in the banner, then returned.
func (f *Flow) SignIn(ctx context.Context, email, password string) error {
	f.banner.Dismiss()
	if _, err := f.auth.SignInWithPassword(ctx, email, password); err != nil {
		f.logger.Info().Err(err).Msg("sign in failed")
		f.banner.set(err.Error())
		f.prompt.Alert(TitleSignInError, err.Error())
		return err
	}
	f.logger.Debug().Msg("signed in")
	return nil
}

// SignUp registers the given credentials. When the service issues no
// session the user is told to verify their email instead.
func (f *Flow) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	f.banner.Dismiss()
	res, err := f.auth.SignUp(ctx, email, password)
	if err != nil {
		f.logger.Info().Err(err).Msg("sign up failed")
		f.banner.set(err.Error())
		f.prompt.Alert(err.Error(), "")
		return SignUpResult{}, err
	}
	if res.Session == nil {
		f.prompt.Alert(MsgVerifyEmail, "")
		return SignUpResult{NeedsVerification: true}, nil
	}
	return SignUpResult{}, nil
}

// SignOut asks for confirmation and signs out. It reports whether the user
// was signed out; on failure the local session is left alone.
func (f *Flow) SignOut(ctx context.Context) (bool, error) {
	if !f.prompt.Confirm(TitleSignOut, MsgConfirmSignOut, LabelCancel, LabelSignOut) {
		return false, nil
	}
	if err := f.auth.SignOut(ctx); err != nil {
		f.logger.Info().Err(err).Msg("sign out failed")
		f.prompt.Alert(TitleSignOutError, err.Error())
		return false, err
	}
	return true, nil
}
