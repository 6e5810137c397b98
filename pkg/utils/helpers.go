package utils

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Source formats returned by FileType.
const (
	TypeCSV   = "csv"
	TypeExcel = "excel"
)

// IsURL reports whether location should be fetched over HTTP instead of opened from disk.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// FileType reports how a path or URL should be parsed. Only .xlsx is special,
// every other name is read as CSV.
func FileType(location string) string {
	name := location
	if IsURL(location) {
		if u, err := url.Parse(location); err == nil {
			name = path.Base(u.Path)
		}
	}

	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return TypeExcel
	}
	return TypeCSV
}
