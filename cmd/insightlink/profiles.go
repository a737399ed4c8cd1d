package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/insightlink-dev/insightlink/pkg/server"
)

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the quality profiles",
		Long: `List the quality presets a session can start with.

Higher quality means larger frames and less time between them.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printProfiles(os.Stdout)
		},
	}
}

func printProfiles(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tQUALITY\tDELAY\tMAX FPS")
	def := server.DefaultProfile()
	for _, p := range server.Profiles() {
		key := p.Key
		if p.Key == def.Key {
			key += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.1f\n", key, p.Name, p.Quality, p.Delay, p.FPS())
	}
	tw.Flush()
	fmt.Fprintln(w, "\n* default")
}
