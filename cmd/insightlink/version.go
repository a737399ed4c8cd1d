package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/server"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build and protocol details",
		Long: `Print the build of this binary and the wire format it speaks.

Presenter and viewer must agree on the frame format and port; compare the
Protocol lines of both sides when a viewer cannot connect.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}
			printBanner()
			writeBuildInfo(os.Stdout)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the release tag")
	return cmd
}

// writeBuildInfo prints the build and wire details as an aligned table.
func writeBuildInfo(w io.Writer) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "release\t%s (%s, built %s)\n", version, commit, date)
	fmt.Fprintf(tw, "runtime\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(tw, "protocol\t%d-byte big-endian length + JPEG\n", protocol.FrameHeaderSize)
	fmt.Fprintf(tw, "max frame\t%d MiB\n", protocol.MaxPayloadSize>>20)
	fmt.Fprintf(tw, "port\t%d/tcp\n", server.DefaultPort)
	tw.Flush()
}
