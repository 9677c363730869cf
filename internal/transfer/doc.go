// Package transfer implements the per-file operations a pipeline phase can
// apply: a verified copy, a move, and a mock that only records its plan. It
// also releases cards once an import has finished with them.
//
// An empty destination means the file is already archived; every operation
// treats that as a successful no-op.
package transfer
