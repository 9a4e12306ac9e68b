package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ariel-frischer/tasknotify/internal/api"
	"github.com/ariel-frischer/tasknotify/internal/audio"
	"github.com/ariel-frischer/tasknotify/internal/config"
	apperrors "github.com/ariel-frischer/tasknotify/internal/errors"
	"github.com/ariel-frischer/tasknotify/internal/identity"
	"github.com/ariel-frischer/tasknotify/internal/logging"
	"github.com/ariel-frischer/tasknotify/internal/notify"
	"github.com/ariel-frischer/tasknotify/internal/state"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// senderFactory builds the notification sender for a backend name.
// Tests replace it.
var senderFactory = notify.NewSender

// app is the per-invocation runtime assembled from flags and config.
type app struct {
	cfg *config.Configuration
	log zerolog.Logger
}

// loadApp loads configuration and builds the logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.ConfigFileNotFound(path)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, apperrors.InvalidConfig(err)
	}

	debug, _ := cmd.Flags().GetBool(flagDebug)
	log := logging.New(logging.Options{
		Format: cfg.LogFormat,
		Debug:  debug || cfg.EnableDebug,
		Out:    cmd.ErrOrStderr(),
	})
	return &app{cfg: cfg, log: log}, nil
}

// identityStores returns the persistent identity stores in lookup order.
func identityStores() ([]identity.Store, *identity.FileStore, error) {
	dir, err := config.GlobalDir()
	if err != nil {
		return nil, nil, err
	}
	file := identity.NewFileStore(dir)
	return []identity.Store{identity.NewEnvStore(), file}, file, nil
}

// resolveEmployee resolves the employee ID from --employee, the
// environment and the identity file, in that order.
func resolveEmployee(cmd *cobra.Command) (identity.Resolved, error) {
	flag, _ := cmd.Flags().GetString(flagEmployee)
	stores, _, err := identityStores()
	if err != nil {
		stores = []identity.Store{identity.NewEnvStore()}
	}
	return identity.Resolve(flag, stores...)
}

// requireEmployee is resolveEmployee for commands that cannot run without one.
func requireEmployee(cmd *cobra.Command) (identity.Resolved, error) {
	resolved, err := resolveEmployee(cmd)
	if err != nil {
		return identity.Resolved{}, apperrors.MissingEmployeeID()
	}
	return resolved, nil
}

func (a *app) apiClient() (*api.Client, error) {
	client, err := api.NewClient(a.cfg.APIURL, api.Options{
		Token:   a.cfg.APIToken,
		Timeout: a.cfg.Timeout(),
	})
	if err != nil {
		return nil, apperrors.InvalidConfig(err)
	}
	return client, nil
}

func (a *app) sender() notify.Sender {
	return senderFactory(a.cfg.Notifications.Backend)
}

// desktop wraps sender with the persisted permission state.
func (a *app) desktop(sender notify.Sender) *notify.Center {
	return notify.NewCenter(
		sender,
		state.NewPermissionFile(a.cfg.StateDir),
		a.cfg.Notifications.Permission,
		notify.WithCenterLogger(logging.Component(a.log, "notify")),
	)
}

// chime returns the configured sound asset.
func (a *app) chime() audio.Asset {
	if a.cfg.Sound.File != "" {
		return audio.FileAsset(a.cfg.Sound.File)
	}
	return audio.ChimeAsset()
}

// ping checks the API before long-running work starts.
func ping(ctx context.Context, client *api.Client) error {
	if err := client.Ping(ctx); err != nil {
		return apperrors.APIUnreachable(client.BaseURL(), err)
	}
	return nil
}

// printError renders err for the user; CLIErrors get remediation steps.
func printError(w io.Writer, err error) {
	fmt.Fprint(w, apperrors.FormatSimpleError(err, apperrors.Runtime))
}
