package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/client"
	"github.com/dagbolade/echoguard/internal/textsink"
	"github.com/dagbolade/echoguard/internal/tui"
	"github.com/dagbolade/echoguard/internal/viewmodel"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the access log live.",
	Long:  "Follow the access log live. Opens the interactive console on a terminal and prints a table per refresh otherwise.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := clientConfig(cmd)
		q := queryFromFlags(cmd)

		plain, _ := cmd.Flags().GetBool("plain")
		if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
			return runWatchPlain(cmd.Context(), cfg, q)
		}
		return runWatchConsole(cmd.Context(), cfg, q)
	},
}

func init() {
	addClientFlags(watchCmd)
	addQueryFlags(watchCmd)
	watchCmd.Flags().Duration("interval", viewmodel.DefaultInterval, "poll interval (env POLL_INTERVAL_MS)")
	watchCmd.Flags().Bool("push", false, "also refresh on backend push events (env ECHOGUARD_PUSH)")
	watchCmd.Flags().Bool("plain", false, "print tables instead of the interactive console")
}

func newStore(q accesslog.Query) *viewmodel.Store {
	store := viewmodel.NewStore()
	store.SetFilter(q.Filter)
	store.SetSearch(q.Search)
	return store
}

// runPolling runs the poller, and the push subscriber when enabled, until ctx is done.
func runPolling(ctx context.Context, g *errgroup.Group, cfg client.Config, c *client.Client, poller *viewmodel.Poller) {
	g.Go(func() error {
		if err := poller.Start(ctx, cfg.PollInterval); err != nil {
			return err
		}
		<-ctx.Done()
		poller.Stop()
		return nil
	})

	if cfg.Push {
		g.Go(func() error {
			return c.Subscribe(ctx, poller.RefreshNow)
		})
	}
}

func runWatchPlain(ctx context.Context, cfg client.Config, q accesslog.Query) error {
	c := newClient(cfg)
	store := newStore(q)
	sink := textsink.New(os.Stdout, os.Stderr)
	poller := viewmodel.NewPoller(store, c, sink,
		viewmodel.WithSanitizer(viewmodel.SanitizeTerminal),
		viewmodel.WithRequestTimeout(cfg.RequestTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	runPolling(gctx, g, cfg, c, poller)
	return g.Wait()
}

func runWatchConsole(ctx context.Context, cfg client.Config, q accesslog.Query) error {
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	setupLogger(logFile)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newClient(cfg)
	store := newStore(q)

	actions := &tui.Actions{Ctx: ctx, Store: store}
	p := tea.NewProgram(tui.New(actions, store.Query()), tea.WithContext(ctx), tea.WithAltScreen())
	sink := tui.NewSink(p)

	poller := viewmodel.NewPoller(store, c, sink,
		viewmodel.WithSanitizer(viewmodel.SanitizeTerminal),
		viewmodel.WithRequestTimeout(cfg.RequestTimeout),
	)
	search := viewmodel.NewDebouncer(cfg.SearchDebounce, store.SetSearch)
	defer search.Stop()

	actions.Refresher = poller
	actions.Search = search
	actions.Submitter = viewmodel.NewSubmissionController(c, sink,
		viewmodel.WithBusyIndicator(sink),
		viewmodel.WithForm(sink),
		viewmodel.WithRefresher(poller),
		viewmodel.WithNotificationSanitizer(viewmodel.SanitizeTerminal),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, p)
	})
	runPolling(gctx, g, cfg, c, poller)

	return g.Wait()
}

func openLogFile() (*os.File, error) {
	path := getEnv("LOG_FILE", filepath.Join(os.TempDir(), "echoguard-watch.log"))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Debug().Str("path", path).Msg("console diagnostics redirected")
	return f, nil
}
