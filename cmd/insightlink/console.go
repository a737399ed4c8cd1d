package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/insightlink-dev/insightlink/internal/errors"
	"github.com/insightlink-dev/insightlink/pkg/admin"
	"github.com/insightlink-dev/insightlink/pkg/server"
)

const consoleHelp = `Commands:
  pause            pause or resume streaming
  kick <ip:port>   disconnect a viewer
  clients          list connected viewers
  status           show the session state
  stop             stop the session and exit
  help             show this list`

// errConsoleStop is returned when the operator asks to stop.
var errConsoleStop = stderrors.New("stop requested from console")

// runConsole reads operator commands from in until EOF, ctx is done, or
// the operator types stop. Replies go to out.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, ctl admin.Controller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := consoleCommand(line, out, ctl); err != nil {
				return err
			}
		}
	}
}

func consoleCommand(line string, out io.Writer, ctl admin.Controller) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "pause", "resume", "p":
		paused, err := ctl.TogglePause()
		if err != nil {
			fmt.Fprintln(out, errors.Classify(err).FormatCompact())
			return nil
		}
		if paused {
			fmt.Fprintln(out, "paused")
		} else {
			fmt.Fprintln(out, "resumed")
		}

	case "kick", "k":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: kick <ip:port>")
			return nil
		}
		if err := ctl.Kick(fields[1]); err != nil {
			fmt.Fprintln(out, errors.Classify(err).FormatCompact())
			return nil
		}
		fmt.Fprintf(out, "kicked %s\n", fields[1])

	case "clients", "ls":
		printClients(out, ctl.Status().Clients)

	case "status":
		st := ctl.Status()
		fmt.Fprintf(out, "state=%s profile=%s addr=%s frames=%d viewers=%d\n",
			st.State, st.Profile, st.Addr, st.FramesSent, len(st.Clients))

	case "stop", "quit", "exit", "q":
		return errConsoleStop

	case "help", "?":
		fmt.Fprintln(out, consoleHelp)

	default:
		fmt.Fprintf(out, "unknown command %q (type help)\n", fields[0])
	}
	return nil
}

func printClients(out io.Writer, clients []server.ClientInfo) {
	if len(clients) == 0 {
		fmt.Fprintln(out, "no viewers connected")
		return
	}
	for _, c := range clients {
		fmt.Fprintf(out, "%-22s connected %s\n", c.Addr, c.ConnectedAt.Format("15:04:05"))
	}
}
