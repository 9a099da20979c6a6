package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/api"
	"github.com/tcash-app/tcash/internal/auth"
	"github.com/tcash-app/tcash/internal/authflow"
	"github.com/tcash-app/tcash/internal/gate"
	"github.com/tcash-app/tcash/internal/prompt"
	"github.com/tcash-app/tcash/internal/session"
	"github.com/tcash-app/tcash/internal/storage"
)

// runtime is the wired set of collaborators a command works with.
type runtime struct {
	storage storage.Storage
	auth    *auth.Client
	api     *api.Client
	store   *session.Store
	prompt  *prompt.Terminal
	flow    *authflow.Flow
	logger  zerolog.Logger
}

// open wires the collaborators from the loaded config. Without autoRefresh
// the session is only refreshed on demand.
func (c *cli) open(cmd *cobra.Command, autoRefresh bool) (*runtime, error) {
	cfg := c.cfg
	st, err := storage.Open(cfg.StorageDriver(), cfg.StoragePath(c.configPath))
	if err != nil {
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	authClient, err := auth.New(auth.Options{
		URL:        cfg.Auth.URL,
		AnonKey:    cfg.Auth.AnonKey,
		Storage:    st,
		HTTPClient: httpClient,
		Logger:     c.logger.With().Str("component", "auth").Logger(),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var source session.AuthService = authClient
	if !autoRefresh {
		source = manualRefresh{authClient}
	}

	term := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return &runtime{
		storage: st,
		auth:    authClient,
		api:     api.NewClient(cfg.API.BaseURL, httpClient, c.logger.With().Str("component", "api").Logger()),
		store:   session.NewStore(source, c.logger.With().Str("component", "session").Logger()),
		prompt:  term,
		flow:    authflow.New(authClient, term, c.logger),
		logger:  c.logger,
	}, nil
}

// wait starts the store and blocks until the session is resolved.
func (rt *runtime) wait(ctx context.Context) (session.Snapshot, error) {
	rt.store.Start(ctx)
	snap, err := rt.store.Wait(ctx)
	if err != nil {
		return snap, fmt.Errorf("resolving session: %w", err)
	}
	return snap, nil
}

// requireGroup waits for the session and reports the decision of a gate
// guarding g.
func (rt *runtime) requireGroup(ctx context.Context, g gate.Group) (session.Snapshot, gate.Decision, error) {
	snap, err := rt.wait(ctx)
	if err != nil {
		return snap, gate.Decision{}, err
	}
	gt := gate.New(rt.store, g, nil)
	defer gt.Close()
	return rt.store.Snapshot(), gt.Decision(), nil
}

// protected returns the signed-in user's snapshot, or errNotSignedIn.
func (rt *runtime) protected(ctx context.Context) (session.Snapshot, error) {
	snap, d, err := rt.requireGroup(ctx, gate.Protected)
	if err != nil {
		return snap, err
	}
	if d.Redirect != "" {
		return snap, errNotSignedIn
	}
	return snap, nil
}

func (rt *runtime) Close() {
	rt.store.Stop()
	_ = rt.storage.Close()
}

// manualRefresh hides the auto refresh controls of the auth client.
type manualRefresh struct {
	*auth.Client
}

func (manualRefresh) StartAutoRefresh() {}
func (manualRefresh) StopAutoRefresh()  {}
