// Package fileutil holds the byte-level file primitives the transfer layer
// builds on: verified copies, cross-device aware moves, and content equality.
// Every helper takes an afero.Fs so callers can run against the real disk, an
// in-memory tree, or a copy-on-write overlay.
package fileutil
