package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tshape/internal/shape"
)

// ReadTable parses a delimited numeric table after skipping headerLines
// lines. Blank lines and lines starting with '#' are ignored. Cells that do
// not parse as numbers become NaN. Rows of differing width are an error.
func ReadTable(r io.Reader, delimiter rune, headerLines int) (shape.Table, error) {
	br := bufio.NewReader(r)
	for i := 0; i < headerLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return shape.Table{}, nil
			}
			return nil, fmt.Errorf("skip header line %d: %w", i+1, err)
		}
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var table shape.Table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table: %w", err)
		}
		row := make([]float64, len(record))
		for i, cell := range record {
			row[i] = parseCell(cell)
		}
		table = append(table, row)
	}

	if err := table.Check(); err != nil {
		return nil, err
	}
	return table, nil
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
