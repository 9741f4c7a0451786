// Package cli provides the interactive attendkeeper command-line client.
//
// It wires configuration, the HTTP API client and an interactive REPL.
// A background watcher pings the server and reports when it goes
// offline or comes back.
//
// Commands:
//   - register / login / logout
//   - attend <image-file>: submit a face image for attendance
//   - history [limit]: list own attendance records
//   - ping: check that the server is reachable
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
