package commands_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcash-app/tcash/internal/apitest"
	"github.com/tcash-app/tcash/internal/commands"
	"github.com/tcash-app/tcash/internal/config"
	"github.com/tcash-app/tcash/internal/model"
)

type harness struct {
	t          *testing.T
	dir        string
	configPath string
	auth       *apitest.AuthServer
	wallet     *apitest.WalletServer
	user       model.User
}

// clearEnv keeps the developer's environment out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvAPIURL, config.EnvAuthURL, config.EnvAnonKey, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
}

// newHarness writes a config pointing at fresh fake servers.
func newHarness(t *testing.T) *harness {
	t.Helper()
	clearEnv(t)

	h := &harness{
		t:      t,
		dir:    t.TempDir(),
		auth:   apitest.NewAuthServer(t),
		wallet: apitest.NewWalletServer(t),
	}
	h.configPath = filepath.Join(h.dir, "tcash.yaml")
	h.user = h.auth.AddUser("juan@example.com", "secret123")
	h.wallet.SetBalanceBody(h.user.ID, `{"user":{"balance":"1500.50"}}`)
	h.wallet.SetTransactions(h.user.ID,
		apitest.Tx(1, "TC-1001", "100", "2025-03-01T08:00:00Z", model.TypeCashIn),
		apitest.Tx(2, "TC-2002", "50", "2025-03-03T08:00:00Z", "cashout"),
		apitest.Tx(3, "XY-3003", "25", "2025-03-02T08:00:00Z", model.TypeCashIn),
	)

	cfg := config.Default()
	cfg.API.BaseURL = h.wallet.BaseURL()
	cfg.Auth.URL = h.auth.URL
	cfg.Auth.AnonKey = apitest.AnonKey
	require.NoError(t, config.Save(h.configPath, cfg))
	return h
}

// run executes tcash in process with the harness config.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	return runTcash(h.t, stdin, append([]string{"--config", h.configPath}, args...)...)
}

func (h *harness) signIn() {
	h.t.Helper()
	_, err := h.run("", "signin", "--email", "juan@example.com", "--password", "secret123")
	require.NoError(h.t, err)
}

func runTcash(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := commands.NewRootCommand()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}
