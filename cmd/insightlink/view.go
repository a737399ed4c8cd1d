package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insightlink-dev/insightlink/internal/config"
	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/viewer"
)

const monitoringNotice = `Session Monitoring Notice

This session is monitored for security and academic integrity. The stream
is dynamically watermarked with your IP address and a timestamp.

The connection is NOT encrypted. Please use on trusted networks only.
`

// viewOptions are the command line overrides for view.
type viewOptions struct {
	port         int
	output       string
	width        int
	height       int
	logOnly      bool
	acceptNotice bool
}

func viewCmd(flags *globalFlags) *cobra.Command {
	var opts viewOptions

	cmd := &cobra.Command{
		Use:   "view <presenter-ip>",
		Short: "Watch a presenter's screen",
		Long: `Connect to a presenter and receive its stream.

The latest frame is written to a JPEG file (see --output) that any image
viewer which reloads on change can display. With --log-only, frames are
only logged.

Examples:
  insightlink view 192.168.1.10
  insightlink view 192.168.1.10 --output /tmp/live.jpg --width 1920 --height 1080
  insightlink view 192.168.1.10 --log-only --accept-notice`,
		Args: cobra.ExactArgs(1),
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

			return runView(ctx, cfg, strings.TrimSpace(args[0]), opts, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Presenter TCP port (default from insightlink.json, else 9999)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "JPEG file to keep updated with the latest frame")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Viewport width to fit frames into")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Viewport height to fit frames into")
	cmd.Flags().BoolVar(&opts.logOnly, "log-only", false, "Log frames instead of writing them")
	cmd.Flags().BoolVarP(&opts.acceptNotice, "accept-notice", "y", false, "Accept the monitoring notice without prompting")

	return cmd
}

func (o viewOptions) apply(cfg *config.Config) {
	if o.port > 0 {
		cfg.Viewer.Port = o.port
	}
	if o.output != "" {
		cfg.Viewer.Output = o.output
	}
	if o.width > 0 {
		cfg.Viewer.Viewport.Width = o.width
	}
	if o.height > 0 {
		cfg.Viewer.Viewport.Height = o.height
	}
}

// confirmNotice shows the monitoring notice and reads a yes/no answer.
func confirmNotice(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, monitoringNotice+"\n")
	fmt.Fprint(out, "Do you agree to these terms? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ok":
		return true
	}
	return false
}

// runView validates host, asks for consent, and receives until the stream
// ends or ctx is done. A presenter ending the session is not an error.
func runView(ctx context.Context, cfg *config.Config, host string, opts viewOptions, in io.Reader, out io.Writer) error {
	if err := viewer.ValidateHost(host); err != nil {
		return err
	}
	if !opts.acceptNotice && !confirmNotice(in, out) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	logger := newLogger(cfg.Log, os.Stderr)

	conn, err := viewer.Dial(ctx, host, cfg.ViewerConfig())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s\n", conn.RemoteAddr())

	var renderer viewer.Renderer
	if opts.logOnly {
		renderer = &viewer.LogRenderer{Logger: logger, Every: 30}
	} else {
		renderer = &viewer.FileRenderer{
			Path:   cfg.Viewer.Output,
			Width:  cfg.Viewer.Viewport.Width,
			Height: cfg.Viewer.Viewport.Height,
			Logger: logger,
		}
		fmt.Fprintf(out, "Writing frames to %s\n", cfg.Viewer.Output)
	}

	first := true
	rcv := viewer.NewReceiver(conn, viewer.RendererFuncs{
		OnRender: func(img image.Image) error {
			if first {
				first = false
				b := img.Bounds()
				logger.Info("receiving", "width", b.Dx(), "height", b.Dy())
			}
			return renderer.Render(img)
		},
		OnDisconnect: func(err error) {
			renderer.Disconnected(err)
			fmt.Fprintln(out, viewer.DisconnectReason(err))
		},
	}, viewer.ReceiverOptions{
		MaxFrameSize: cfg.Viewer.MaxFrameSize,
		Logger:       logger,
	})

	err = rcv.Run(ctx)
	st := rcv.Stats()
	logger.Log(ctx, slog.LevelDebug, "viewer finished",
		"frames", st.Frames, "decode_failures", st.DecodeFailures, "bytes", st.Bytes)

	if stderrors.Is(err, protocol.ErrEndOfStream) || stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
