package batch

import (
	"context"
	"sort"

	"tshape/internal/shape"
	"tshape/internal/spectrum"
)

// DefaultRestSymbol is the symbol that marks a subject's reference contour.
const DefaultRestSymbol = "rest"

// Record identifies one input table and the subject and symbol it belongs to.
type Record struct {
	// ID is the loader's identity for the table, such as a file path.
	ID      string
	Subject string
	Symbol  string
}

// Loader supplies records and their tables.
type Loader interface {
	Records(ctx context.Context) ([]Record, error)
	Table(ctx context.Context, id string) (shape.Table, error)
}

// Row is the analysis result for one repetition.
type Row struct {
	Subject    string
	Symbol     string
	Repetition int
	Source     string
	// MCI is the curvature complexity index.
	MCI float64
	// Procrustes is the distance to the subject's rest shape. It is 0 when
	// HasRest is false.
	Procrustes float64
	HasRest    bool
	Harmonics  [spectrum.ReportedHarmonics]spectrum.Harmonic
}

// SubjectGroup collects one subject's records partitioned by symbol.
type SubjectGroup struct {
	Subject string
	// Rest holds every record labelled with the rest symbol. More than one is
	// a format error detected during processing.
	Rest []Record
	// Symbols lists the measured symbols in sorted order.
	Symbols  []string
	BySymbol map[string][]Record
}

// Group partitions records by subject and symbol. Subjects are returned in
// sorted order; records under one symbol keep their ID order.
func Group(records []Record, restSymbol string) []SubjectGroup {
	index := make(map[string]*SubjectGroup)
	for _, rec := range records {
		g, ok := index[rec.Subject]
		if !ok {
			g = &SubjectGroup{Subject: rec.Subject, BySymbol: make(map[string][]Record)}
			index[rec.Subject] = g
		}
		if rec.Symbol == restSymbol {
			g.Rest = append(g.Rest, rec)
			continue
		}
		if _, seen := g.BySymbol[rec.Symbol]; !seen {
			g.Symbols = append(g.Symbols, rec.Symbol)
		}
		g.BySymbol[rec.Symbol] = append(g.BySymbol[rec.Symbol], rec)
	}

	groups := make([]SubjectGroup, 0, len(index))
	for _, g := range index {
		sort.Strings(g.Symbols)
		for _, recs := range g.BySymbol {
			sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
		}
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Subject < groups[j].Subject })
	return groups
}

// Collector accumulates rows in discovery order.
type Collector struct {
	rows []Row
}

// Add appends a row.
func (c *Collector) Add(row Row) {
	c.rows = append(c.rows, row)
}

// Merge appends every row of other.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.rows = append(c.rows, other.rows...)
}

// Len returns the number of collected rows.
func (c *Collector) Len() int {
	return len(c.rows)
}

// Rows returns the collected rows.
func (c *Collector) Rows() []Row {
	return c.rows
}
