package loader

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParseName derives the subject and symbol from a file name by splitting its
// stem at the last underscore. Both parts are NFC-normalized so names coming
// from decomposing filesystems group with their composed spellings.
func ParseName(name string) (subject, symbol string, ok bool) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return "", "", false
	}
	subject = norm.NFC.String(stem[:idx])
	symbol = norm.NFC.String(stem[idx+1:])
	return subject, symbol, true
}
