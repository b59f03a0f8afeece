// Package cli provides the interactive songsync command-line client.
//
// It wires configuration, the local record store, the server gateway, a
// connectivity monitor and the sync machine into an interactive REPL that
// supports online/offline operation. Typical flow: prompt for credentials,
// start the background connectivity watcher, and execute user commands.
//
// Key features:
//   - Login with cached-token fallback when the server is unreachable
//   - List records (server or local cache, depending on connectivity)
//   - Add and like records, with offline writes held under placeholder ids
//   - Sync local writes with the server on demand or automatically when
//     connectivity returns
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and the syncer package for details.
package cli
