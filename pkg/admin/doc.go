// Package admin exposes a presenter session over HTTP.
//
// The API is meant for a local control panel or scripts on the presenter's
// machine. It listens on loopback by default and has no authentication.
//
// Routes:
//
//	GET    /status              session snapshot
//	GET    /profiles            quality presets
//	GET    /clients             connected viewers
//	POST   /session/start       start (profile in ?profile= or {"profile": ...})
//	POST   /session/stop        stop and disconnect everyone
//	POST   /session/pause       toggle pause, returns {"paused": bool}
//	DELETE /clients/{addr}      kick a viewer by ip:port
//	GET    /metrics             Prometheus exposition
//	GET    /events              WebSocket stream of session events
//
// Errors are JSON objects with the InsightLink error code:
//
//	{"code": "IL003", "category": "validation", "message": "Unknown quality profile", ...}
//
// The event hub must exist before the session so its callbacks can be wired
// in:
//
//	hub := admin.NewHub(logger)
//	sess := server.New(server.Options{Callbacks: console.Merge(hub.Callbacks()), ...})
//	srv := admin.New(admin.Options{Controller: sess, Hub: hub, Gatherer: reg})
//	err := srv.ListenAndServe(ctx, "127.0.0.1:9998")
package admin
