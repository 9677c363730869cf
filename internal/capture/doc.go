// Package capture turns discovered card paths into timestamped CameraFile
// records.
//
// The filesystem change time is trusted unless it lies in the future relative
// to the moment the run started. Such files are handed to a metadata Prober
// whose embedded creation date becomes authoritative; a probe that fails or
// yields an unparseable date aborts the run rather than guessing.
package capture
