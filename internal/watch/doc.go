// Package watch listens for removable media arriving over the udev netlink
// socket and fires an import once the burst of events for a card settles.
package watch
