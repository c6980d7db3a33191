package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/searchlens-labs/searchlens/internal/auth"
	"github.com/searchlens-labs/searchlens/internal/provider/gsc"
	"github.com/searchlens-labs/searchlens/internal/query/preset"
	"github.com/searchlens-labs/searchlens/internal/server"
	"github.com/searchlens-labs/searchlens/internal/state"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run a local HTTP API over the same query pipeline the CLI uses.

The user presets file is watched and hot-reloaded while the server runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	addr := ctxc.Cfg.ServeAddr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := buildFetcher(ctx, ctxc, store)
	if err != nil {
		return err
	}
	sites, err := fetcherAsSiteLister(ctx, ctxc, store)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:       addr,
		Fetcher:    fetcher,
		Sites:      sites,
		Presets:    ctxc.Presets,
		Normalizer: ctxc.Normalizer(),
		Store:      store,
		Logger:     ctxc.Logger,
	})

	cmd.Printf("Serving on %s\n", addr)
	cmd.Println("Press Ctrl+C to stop")

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return preset.Watch(egctx, ctxc.Presets, ctxc.Cfg.PresetsPath, ctxc.Logger)
	})
	eg.Go(func() error {
		return srv.Serve(egctx)
	})
	return eg.Wait()
}

// fetcherAsSiteLister builds a siteless client for property enumeration with
// the same credentials the fetcher uses.
func fetcherAsSiteLister(ctx context.Context, ctxc *CommandContext, store state.Store) (*gsc.Client, error) {
	oauthCfg, err := auth.LoadOAuthConfig(ctxc.Cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	httpClient, err := auth.Client(ctx, oauthCfg, store, ctxc.Cfg.Account)
	if err != nil {
		return nil, err
	}
	return gsc.New(ctx, httpClient, "")
}
