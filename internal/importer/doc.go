// Package importer runs one complete card import: lock, discover cards,
// preflight the archives, resolve capture times, copy to the primary
// archive, move to the backup archive, record the run, and release the
// cards when every transfer succeeded.
//
// Mock imports run the same phases over a copy-on-write overlay of the real
// filesystem, so every decision is made exactly as a real run would make it
// while nothing on disk changes. The planned transfers are written as
// shell-like lines to the configured plan destination.
package importer
