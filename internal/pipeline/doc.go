// Package pipeline runs the archive placement phases over a sorted stream of
// camera files.
//
// Each phase walks every file in capture order, asks a session tracker for
// the day directory, asks the namer for a collision-safe destination, and
// applies the phase's transfer operation. Phases run one after another; the
// directory cache is shared across them while session state is not.
//
// Per-file transfer failures are recorded and the phase continues. Failures
// to resolve a directory or a name mean the archive itself is unusable and
// abort the run.
package pipeline
