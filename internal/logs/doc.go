// Package logs reads back the JSON log file written by the logging package.
//
// Entries are parsed from the rotating cardvault.log so the CLI can show the
// last N records of a run or follow new ones as an import progresses. Reads
// stream the file with bounded memory, and Follow notices when rotation
// truncates the file underneath it.
package logs
