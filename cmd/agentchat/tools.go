package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/agentchat/internal/devbackend"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/metrics"
	"github.com/joss/agentchat/internal/render"
	"github.com/joss/agentchat/internal/runtime"
	"github.com/joss/agentchat/internal/selftest"
)

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func renderCmd() *cobra.Command {
	var terminal, plain bool

	cmd := &cobra.Command{
		Use:         "render",
		Short:       "Format a message from stdin as chat HTML",
		Long:        "Format a message from stdin: fenced code blocks, `inline code`, **bold** and line breaks.",
		Annotations: map[string]string{annotOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), render.Parse(text).Plain())
				return nil
			}
			if terminal {
				fmt.Fprintln(cmd.OutOrStdout(), render.Terminal(render.Parse(text), render.DefaultStyles(), termWidth()))
				return nil
			}
			html := render.FormatMessage(text)
			if jsonOut {
				return printJSON(map[string]string{"html": html})
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&terminal, "terminal", "t", false, "Render for the terminal instead of HTML")
	cmd.Flags().BoolVar(&plain, "plain", false, "Strip all formatting")
	return cmd
}

func doctorCmd() *cobra.Command {
	var quick bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			env := selftest.Check(ctx, selftest.Options{
				Env:         cfg,
				API:         client,
				Store:       kv,
				StorePath:   kv.Path(),
				Credentials: creds,
				IsTerminal:  func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
			})

			switch {
			case jsonOut:
				if err := printJSON(env.Health); err != nil {
					return err
				}
			case quick:
				fmt.Println(env.QuickCheck())
			default:
				fmt.Print(env.Summary())
			}
			if !env.IsHealthy() {
				return errors.New(strings.Join(env.Errors, "; "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "Print a one-line status")
	return cmd
}

func devBackendCmd() *cobra.Command {
	var addr string
	var seed []string

	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Run an in-memory backend for local development",
		Long: `Run an in-memory implementation of the chat-agent API.

Replies echo the message back. Data is lost on exit.
Seed accounts with --user name:password (repeatable).`,
		Annotations: map[string]string{annotOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.DevAddr
			}
			log := logging.New("dev-backend")

			be := devbackend.New()
			for _, s := range seed {
				name, pass, ok := strings.Cut(s, ":")
				if !ok || name == "" {
					return fmt.Errorf("invalid --user %q, want name:password", s)
				}
				be.AddUser(name, pass)
				log.Info("seeded_user", map[string]interface{}{"username": name})
			}

			stats := metrics.New()
			r := chi.NewRouter()
			r.Use(accessLog(log, stats))
			r.Get("/healthz", selftest.QuickHealthHandler())
			r.Get("/metrics", stats.Handler())
			r.Mount("/", be.Handler())

			srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
			sm := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
			sm.Register("http_server", srv.Shutdown)
			sm.ListenForSignals()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", map[string]interface{}{"addr": addr})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					sm.Shutdown()
					return fmt.Errorf("dev backend: %w", err)
				}
				sm.Shutdown()
			case <-sm.Context().Done():
				<-sm.Done()
			}
			return sm.Err()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default AGENTCHAT_DEV_ADDR or :8000)")
	cmd.Flags().StringArrayVar(&seed, "user", nil, "Seed an account as name:password")
	return cmd
}

// accessLog logs and counts every request with its status and duration.
func accessLog(log *logging.Logger, stats *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := r.Context()
			reqID := r.Header.Get("X-Request-ID")
			if reqID != "" {
				ctx = logging.WithRequestID(ctx, reqID)
			} else {
				ctx, reqID = logging.EnsureRequestID(ctx)
			}
			next.ServeHTTP(ww, r.WithContext(ctx))
			stats.RecordRequest(ww.Status(), time.Since(start))
			log.TimedEvent("http_request", start, map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"request_id": reqID,
			}, nil)
		})
	}
}
