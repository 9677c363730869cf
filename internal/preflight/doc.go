// Package preflight verifies that an import can run before any file is
// touched.
//
// Archive roots must exist, be writable directories, and carry their sanity
// marker file. The marker guards against importing into an empty mount point
// when the archive volume failed to mount. Free space and optional external
// programs are reported as advisories that never block a run.
package preflight
