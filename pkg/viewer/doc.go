// Package viewer is the receiving side of InsightLink. Dial connects to a
// presenter, and a Receiver reads length-prefixed JPEG frames, decodes them,
// and hands them to a Renderer in arrival order.
//
//	conn, err := viewer.Dial(ctx, "192.168.1.10", viewer.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	rx := viewer.NewReceiver(conn, renderer, viewer.ReceiverOptions{})
//	err = rx.Run(ctx) // returns when the presenter goes away
//
// There is no reconnect. A viewer that loses the presenter must dial again.
package viewer
