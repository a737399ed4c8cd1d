// Package protocol implements the InsightLink wire protocol.
//
// A presenter streams screen images to each viewer over a plain TCP
// connection. Every image travels as one frame: an 8-byte length followed by
// the encoded image bytes.
//
// # Wire Format
//
//	┌───────────────────────────────────────────────────────────┐
//	│ Payload Length (8 bytes, unsigned, big-endian)            │
//	└───────────────────────────────────────────────────────────┘
//	│  Payload (JPEG bytes, at most MaxPayloadSize)             │
//	└───────────────────────────────────────────────────────────┘
//
// Frames repeat until the connection closes. There are no sequence numbers,
// acknowledgements or retransmissions; TCP provides ordering, and the loss of
// any byte tears the connection down.
//
// # Limits
//
// MaxPayloadSize (10 MiB) is enforced on both sides. WriteFrame refuses to
// emit an oversize payload. ReadFrame rejects an oversize declared length
// with ErrFrameTooLarge before reading any payload byte.
//
// # Errors
//
//   - ErrEndOfStream: the peer closed the stream (clean or mid-frame)
//   - ErrFrameTooLarge: declared or actual payload above the limit
//   - ErrConnectionLost: any other I/O failure, wrapping the cause
//
// All three end the connection; IsDisconnect reports that class.
//
// # Usage Example
//
//	// Presenter side
//	if err := protocol.WriteFrame(conn, jpegBytes); err != nil {
//	    // close and forget the viewer
//	}
//
//	// Viewer side
//	r := protocol.NewReader(conn, protocol.MaxPayloadSize)
//	for {
//	    payload, err := r.ReadFrame()
//	    if err != nil {
//	        break
//	    }
//	    render(payload)
//	}
package protocol
