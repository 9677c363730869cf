// Package media discovers mounted camera cards and the capture files on them.
//
// A card is any directory under the media root (optionally scoped to a login
// name, as desktop automounters do) that holds a DCIM directory. Capture files
// are the regular files one level below DCIM whose extension belongs to the
// recognized still and video formats, compared case-insensitively.
package media
