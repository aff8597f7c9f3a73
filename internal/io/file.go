package ioutils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`\.+$`)
	repeatedSpace   = regexp.MustCompile(`\s+`)
	maxExtensionLen = 6
)

// SanitizeFileName makes name safe to use as a file name and limits its length.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//   - Names longer than maxLen characters are cut so the result is exactly
//     maxLen characters long, keeping the extension when there is one
//
// Length is counted in characters, not bytes, so multi-byte titles are never
// split inside a rune. A maxLen of 0 or less disables truncation.
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2", 0)          // "Song_ Part 1_2"
//	SanitizeFileName("abcdefghij.mp3", 8)          // "abcd.mp3"
//	SanitizeFileName("晴天 - 周杰伦", 4)             // "晴天 -"
func SanitizeFileName(name string, maxLen int) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	name = strings.TrimRight(name, " ")

	if maxLen <= 0 || utf8.RuneCountInString(name) <= maxLen {
		return name
	}

	ext := fileExt(name)
	stem := []rune(strings.TrimSuffix(name, ext))
	keep := maxLen - utf8.RuneCountInString(ext)
	if keep <= 0 {
		// Extension alone does not fit; cut the whole name instead.
		return string([]rune(name)[:maxLen])
	}
	if keep > len(stem) {
		keep = len(stem)
	}
	return strings.TrimRight(string(stem[:keep]), " ") + ext
}

// fileExt returns the extension of name when it looks like a real one.
// "Mr. Brightside" has no extension; "song.flac" has ".flac".
func fileExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) > maxExtensionLen || strings.ContainsAny(ext, " ") {
		return ""
	}
	return ext
}

// FileExists reports whether path exists as a regular file.
//
// Errors other than "not exist" are treated as absent; callers use the
// result only as a cache hint.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// WriteFileAtomic writes data to path so that readers only ever see the old
// file or the complete new file.
//
// The content is written to a temporary file in the same directory and then
// renamed over the destination. If two writers race on the same path, the
// last rename wins and no partial file is ever visible at path.
//
// Example:
//
//	err := WriteFileAtomic("/music/晴天 - 周杰伦.mp3", content, 0644)
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, "."+base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("ioutils: empty directory path")
	}
	return os.MkdirAll(path, 0755)
}
