package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sandeepkv93/timeaudit/internal/api"
	"github.com/sandeepkv93/timeaudit/internal/daemon"
	"github.com/sandeepkv93/timeaudit/internal/tui"
)

func (a *App) cmdServe(ctx context.Context, args []string) error {
	fs := a.newFlagSet("serve")
	port := fs.Int("port", 0, "override the configured port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *port != 0 {
		a.Config.API.Port = *port
	}

	if a.Config.API.AuthEnabled {
		token, err := a.Config.EnsureAPIToken()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "API token: %s\n", token)
	}

	server := api.New(a.Store, a.Tracker, a.Engine, a.Config, a.Version)
	fmt.Fprintf(a.Stdout, "Serving on %s:%d\n", a.Config.API.Host, a.Config.API.Port)
	return server.ListenAndServe(ctx)
}

func (a *App) cmdDaemon(ctx context.Context, args []string) error {
	fs := a.newFlagSet("daemon")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.Config.Advanced.BackupOnStart {
		if _, err := a.Store.Backup(""); err != nil {
			return err
		}
		if _, err := a.Store.PruneBackups(a.Config.Advanced.BackupRetentionDays); err != nil {
			return err
		}
	}

	stateDir := filepath.Join(filepath.Dir(a.Store.DataDir()), "state")
	states, err := daemon.NewStateStore(stateDir)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(filepath.Join(stateDir, "daemon.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)

	d := daemon.New(a.Config, a.Store, a.Tracker, a.Engine, states, daemon.Options{
		Logger:  logger,
		Version: a.Version,
	})
	fmt.Fprintf(a.Stdout, "Daemon running, state in %s\n", stateDir)
	return d.Run(ctx)
}

func (a *App) cmdWatch(args []string) error {
	fs := a.newFlagSet("watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return tui.RunWatch(a.Tracker)
}
