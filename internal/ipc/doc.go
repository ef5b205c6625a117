// Package ipc exposes daemon control to the CLI and the desktop shell as
// JSON-RPC over a Unix domain socket.
package ipc
