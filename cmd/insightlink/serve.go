package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/insightlink-dev/insightlink/internal/config"
	"github.com/insightlink-dev/insightlink/pkg/admin"
	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/server"
)

// serveOptions are the command line overrides for serve.
type serveOptions struct {
	port      int
	host      string
	profile   string
	backend   string
	admin     bool
	adminAddr string
	noConsole bool
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start broadcasting this screen",
		Long: `Start a presenter session.

Viewers on the LAN connect to this machine's IP on the configured port.
While the session runs, type commands on stdin:

` + consoleHelp + `

Ctrl+C stops the session and disconnects every viewer.

Examples:
  insightlink serve
  insightlink serve --profile high
  insightlink serve --port 9100 --admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var in io.Reader = os.Stdin
			if opts.noConsole {
				in = nil
			}
			return runServe(ctx, cfg, in)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "TCP port to broadcast on (default from insightlink.json, else 9999)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Interface to listen on")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Quality profile: high, medium, or low")
	cmd.Flags().StringVar(&opts.backend, "capture", "", "Capture backend: pattern or gst")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "Serve the admin HTTP API")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "Admin API address (implies --admin)")
	cmd.Flags().BoolVar(&opts.noConsole, "no-console", false, "Do not read commands from stdin")

	return cmd
}

func (o serveOptions) apply(cfg *config.Config) {
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.profile != "" {
		cfg.Server.Profile = o.profile
	}
	if o.backend != "" {
		cfg.Capture.Backend = o.backend
	}
	if o.admin {
		cfg.Admin.Enabled = true
	}
	if o.adminAddr != "" {
		cfg.Admin.Enabled = true
		cfg.Admin.Address = o.adminAddr
	}
}

// consoleCallbacks print session events for the operator.
func consoleCallbacks() server.Callbacks {
	return server.Callbacks{
		OnStatusChanged: func(text string) {
			success("%s", text)
		},
		OnClientAdded: func(addr string) {
			info("+ viewer %s", addr)
		},
		OnClientRemoved: func(addr string) {
			info("- viewer %s", addr)
		},
		OnFatalError: func(title, message string) {
			errorMsg("%s: %s", title, message)
		},
	}
}

// runServe starts the session and runs it, with the admin API and the
// console, until ctx is done or the operator stops it. in may be nil.
func runServe(ctx context.Context, cfg *config.Config, in io.Reader) error {
	logger := newLogger(cfg.Log, os.Stderr)

	src, err := capture.Open(cfg.CaptureOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := admin.NewHub(logger)
	sess := server.New(server.Options{
		Config:    cfg.ServerConfig(),
		Source:    src,
		Overlay:   cfg.Overlay(),
		Callbacks: consoleCallbacks().Merge(hub.Callbacks()),
		Logger:    logger,
		Metrics:   server.NewMetrics(server.WithRegistry(reg)),
	})

	printBanner()
	fmt.Println()
	profile, _ := server.LookupProfile(cfg.Server.Profile)
	info("Profile: %s", profile)
	info("Capture: %s", src.Name())

	if err := sess.Start(cfg.Server.Profile); err != nil {
		return err
	}
	defer sess.Stop()
	warn("The stream is NOT encrypted. Use it on trusted networks only.")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Admin.Enabled {
		srv := admin.New(admin.Options{
			Controller:     sess,
			DefaultProfile: cfg.Server.Profile,
			Hub:            hub,
			Gatherer:       reg,
			Logger:         logger,
		})
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Admin.Address)
		})
		info("Admin API: http://%s", cfg.Admin.Address)
	}

	if in != nil {
		g.Go(func() error {
			return runConsole(gctx, in, os.Stdout, sess)
		})
		info("Type 'help' for commands.")
	}

	g.Go(func() error {
		<-gctx.Done()
		if n := len(sess.Clients()); n > 0 {
			fmt.Println()
			warn("Disconnecting %d viewer(s)...", n)
		}
		sess.Stop()
		return nil
	})

	err = g.Wait()
	if stderrors.Is(err, errConsoleStop) || stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
