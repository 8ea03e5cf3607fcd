package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// forbidden covers the characters no common filesystem accepts in a name.
const forbidden = `<>:"/\|?*`

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// AsciiFold strips diacritics so generated names survive FAT-formatted
// reader storage.
func AsciiFold(s string) string {
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// SanitizeFilename replaces characters disallowed in filenames with an
// underscore, control characters included.
func SanitizeFilename(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(forbidden, r) || r < 0x20 {
			sb.WriteRune('_')
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}

// Filename builds the stored name for a book payload: "title - author" folded
// and sanitized, base truncated to maxLen, extension never truncated. The
// result is deterministic for identical inputs.
func Filename(title, author, ext string, maxLen int) string {
	base := SanitizeFilename(AsciiFold(title + " - " + author))
	if base == "" {
		base = "untitled"
	}
	if maxLen > 0 && len(base) > maxLen {
		cut := base[:maxLen]
		for !utf8.ValidString(cut) {
			cut = cut[:len(cut)-1]
		}
		base = strings.TrimSpace(cut)
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// GenerateNewFileName is a helper function to generate a new file name
func GenerateNewFileName(filePath string) string {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return filePath // file does not exist, return the same name
	}

	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	fileName := strings.TrimSuffix(base, ext)

	existingFiles, err := filepath.Glob(filepath.Join(dir, fileName+"_*[0-9]"+ext))
	if err != nil {
		return filePath
	}

	// The suffix is whatever trails the full base name, splitting on every
	// underscore would eat bases that contain one themselves
	index := 1
	prefix := fileName + "_"
	for _, existingFile := range existingFiles {
		existingName := strings.TrimSuffix(filepath.Base(existingFile), ext)
		if !strings.HasPrefix(existingName, prefix) {
			continue
		}
		existingIndex, err := strconv.Atoi(strings.TrimPrefix(existingName, prefix))
		if err == nil && existingIndex >= index {
			index = existingIndex + 1
		}
	}
	newFileName := fmt.Sprintf("%s_%d%s", fileName, index, ext)
	return filepath.Join(dir, newFileName)
}
