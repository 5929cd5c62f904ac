package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"tshape/internal/shape"
)

// WriteTable writes table to path as comma-separated text. NaN cells are
// written empty, the way spreadsheet exports leave missing points.
func WriteTable(t testing.TB, path string, table shape.Table) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var sb strings.Builder
	for _, row := range table {
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			if !math.IsNaN(v) {
				sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
