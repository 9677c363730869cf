// Package probe reads embedded creation dates from media files. It is only
// consulted for files whose filesystem change time cannot be trusted.
//
// ExifTool shells out to the exiftool binary and handles every format the
// cameras produce. NativeEXIF decodes EXIF in-process and covers JPEG and the
// TIFF-based raw formats for hosts without exiftool.
package probe
