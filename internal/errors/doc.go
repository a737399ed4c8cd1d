// Package errors provides structured, operator-facing error messages for
// the InsightLink command line.
//
// Library packages return plain sentinel errors (server.ErrPortUnavailable,
// protocol.ErrFrameTooLarge, ...). At the edge, Classify maps them to an
// *Error with a stable code, a plain-language explanation, and a hint:
//
//	if err := sess.Start(profile); err != nil {
//	    errors.PrintError(os.Stderr, errors.Classify(err))
//	}
//	// ERROR IL001: Port unavailable
//	//
//	//   The presenter could not listen on the configured TCP port.
//	//
//	//   Hint: Close the other application using the port, or pass --port.
//
// # Error Codes
//
//   - IL001-IL004: session and input errors on the presenter
//   - IL005-IL006, IL010: viewer connection and wire errors
//   - IL007, IL011: configuration errors
//   - IL008-IL009: state and capture errors
package errors
