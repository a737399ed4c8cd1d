// Package server implements the presenter side of InsightLink: a TCP
// listener that streams watermarked screen frames to every connected viewer.
//
// A Session owns one broadcast run at a time. Start binds the listener and
// spawns the accept loop; each accepted viewer gets its own production loop
// that captures, watermarks, encodes, and writes frames until the viewer
// disconnects, is kicked, or the session stops.
//
//	sess := server.New(server.Options{
//	    Source: capture.NewPatternSource(1280, 720),
//	    Callbacks: server.Callbacks{
//	        OnStatusChanged: func(text string) { fmt.Println(text) },
//	    },
//	})
//	if err := sess.Start("medium"); err != nil {
//	    return err
//	}
//	defer sess.Stop()
//
// # Concurrency
//
// The Registry mutex is the only lock shared between loops, and it is never
// held across a socket Close. Stop cancels the run context, closes the
// listener and every client socket, then waits for all loops to exit.
// Callbacks run on the goroutine that produced the event and may call back
// into the Session's read-only accessors.
package server
