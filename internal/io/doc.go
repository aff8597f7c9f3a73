// Package ioutils provides file system utilities for the downloader.
//
// # File names
//
// SanitizeFileName replaces characters that are invalid on common file
// systems and enforces the configured maximum length:
//
//	base := ioutils.SanitizeFileName("晴天 - 周杰伦", 100)
//
// # Cache writes
//
// Downloaded audio is placed with WriteFileAtomic, which writes a temp file
// next to the destination and renames it into place. FileExists on the final
// path is the only cache signal, so a half-written file is never mistaken for
// a finished download.
//
// # Cover art
//
// ImageService resizes and re-encodes cover art before it is embedded.
package ioutils
