// Package main provides the agentchat CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/render"
	"github.com/joss/agentchat/internal/store"
	"github.com/joss/agentchat/internal/tui"
	"github.com/joss/agentchat/internal/ui"
)

// Command annotations controlling setup in PersistentPreRunE.
const (
	annotOffline = "offline" // no credential store or client
	annotTUI     = "tui"     // logs go to the log file
)

var (
	version = "0.1.0"

	jsonOut bool
	apiURL  string
	verbose bool

	cfg     *config.Env
	kv      *store.SQLite
	creds   *auth.CredentialStore
	client  *api.Client
	con     *console
	out     = render.Stdout()
	logFile io.Closer
)

func main() {
	var startRoute string

	rootCmd := &cobra.Command{
		Use:   "agentchat",
		Short: "Chat with your AI agents from the terminal",
		Long: `agentchat: a terminal client for the chat-agent backend.

Usage modes:
  agentchat              Open the interactive UI (login or agent list)
  agentchat chat <id>    Open the interactive UI on one agent
  agentchat <command>    Run a single command (see below)

Configuration comes from AGENTCHAT_* variables or ~/.agentchat/.env.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Annotations:   map[string]string{annotTUI: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ui.LoginRoute
			if startRoute != "" {
				r, err := ui.ParseRoute(startRoute)
				if err != nil {
					return err
				}
				start = r
			}
			return runTUI(start)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend URL (overrides AGENTCHAT_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level to stderr")
	rootCmd.Flags().StringVar(&startRoute, "route", "", `Start page, e.g. "agents" or "chat?agent_id=3"`)

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "agents", Title: "Agents:"},
		&cobra.Group{ID: "chat", Title: "Chat:"},
		&cobra.Group{ID: "tools", Title: "Tools:"},
	)

	for _, c := range []*cobra.Command{loginCmd(), registerCmd(), logoutCmd(), whoamiCmd()} {
		c.GroupID = "account"
		rootCmd.AddCommand(c)
	}

	agents := agentsCmd()
	agents.GroupID = "agents"
	rootCmd.AddCommand(agents)

	for _, c := range []*cobra.Command{chatCmd(), historyCmd(), sendCmd(), uploadCmd(), filesCmd()} {
		c.GroupID = "chat"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{renderCmd(), doctorCmd(), devBackendCmd()} {
		c.GroupID = "tools"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		teardown()
		exitOnError(err)
	}
}

// setup loads configuration, points logging at the right sink and opens the
// credential store unless the command is offline.
func setup(cmd *cobra.Command) error {
	cfg = config.Load()
	if apiURL != "" {
		cfg.APIURL = strings.TrimRight(apiURL, "/")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogging(cmd); err != nil {
		return err
	}
	con = newConsole(out, jsonOut)

	if cmd.Annotations[annotOffline] == "true" {
		return nil
	}
	var err error
	kv, err = store.OpenSQLite(config.GetPaths().CredentialsDB)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	creds = auth.NewCredentialStore(kv)
	client = api.New(cfg.APIURL, creds, api.WithTimeout(cfg.Timeout))
	return nil
}

func setupLogging(cmd *cobra.Command) error {
	if cmd.Annotations[annotTUI] != "true" {
		level := cfg.LogLevel
		if !verbose && logging.ParseLevel(level) < logging.ParseLevel("warn") {
			level = "warn"
		}
		logging.Setup(os.Stderr, level)
		return nil
	}

	paths := config.GetPaths()
	if err := config.EnsureDir(paths.Data); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(paths.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	logging.Setup(f, cfg.LogLevel)
	return nil
}

func teardown() {
	if kv != nil {
		kv.Close()
		kv = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func runTUI(start ui.Route) error {
	wd, _ := os.Getwd()
	return tui.Run(tui.Deps{
		Client:      client,
		Credentials: creds,
		Timeout:     cfg.Timeout,
		WorkDir:     wd,
	}, start)
}

// requestContext bounds a single CLI command.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout+5*time.Second)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show agentchat version",
		Annotations: map[string]string{annotOffline: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentchat version %s\n", version)
		},
	}
}
