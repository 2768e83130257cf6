// Package media knows which audio files the player can decode.
package media

import (
	"path/filepath"
	"strings"
)

var audioExts = []string{".mp3", ".wav", ".flac", ".ogg"}

// IsSupportedExt reports whether ext names a decodable format.
func IsSupportedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range audioExts {
		if e == ext {
			return true
		}
	}
	return false
}

// IsSupported reports whether path has a decodable extension.
func IsSupported(path string) bool {
	return IsSupportedExt(filepath.Ext(path))
}

// SupportedExtsList returns the formats as a comma-separated list.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
