// Command cardvault imports photos and videos from mounted camera cards into
// a primary archive and a backup archive, grouping files into one directory
// per shooting session.
//
// Subcommands:
//
//	import    copy cards to the primary archive, then move them to the backup
//	cards     list mounted cards and their camera files
//	watch     import automatically when a card is inserted
//	history   show recent imports from the ledger
//	deps      report external programs
//	config    create or validate the configuration file
package main
