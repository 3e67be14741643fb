// Package catalog loads the commercial pipe price table and maps
// discrete genome indexes to catalog diameters.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// entry is one catalog row: a commercial diameter and its unit price
// per meter of pipe.
type entry struct {
	diameter  float64
	unitPrice float64
}

// Catalog is an immutable price table sorted by ascending diameter.
// Genome index i maps to the i-th smallest diameter, so neighboring
// indexes are hydraulically similar sizes.
type Catalog struct {
	entries []entry
	prices  map[float64]float64
}

// ConfigurationError reports a malformed or unreadable price table.
type ConfigurationError struct {
	File   string
	Line   int
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid price table %s, line %d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("invalid price table %s: %s", e.File, e.Reason)
}

// IndexOutOfRangeError reports a genome index outside the catalog.
type IndexOutOfRangeError struct {
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("catalog index %d out of range [0, %d)", e.Index, e.Size)
}

// LoadPrices reads a headerless two-column CSV of diameter and unit
// price rows. Both columns must parse as positive numbers and no
// diameter may repeat. Loading fails before any simulation work can
// start, so a bad table never costs an engine session.
func LoadPrices(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{File: path, Reason: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ConfigurationError{File: path, Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &ConfigurationError{File: path, Reason: "price table is empty"}
	}

	entries := make([]entry, 0, len(rows))
	prices := make(map[float64]float64, len(rows))
	for i, row := range rows {
		diameter, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, &ConfigurationError{File: path, Line: i + 1, Reason: fmt.Sprintf("invalid diameter %q", row[0])}
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, &ConfigurationError{File: path, Line: i + 1, Reason: fmt.Sprintf("invalid unit price %q", row[1])}
		}
		if diameter <= 0 {
			return nil, &ConfigurationError{File: path, Line: i + 1, Reason: fmt.Sprintf("diameter must be positive, got %g", diameter)}
		}
		if price <= 0 {
			return nil, &ConfigurationError{File: path, Line: i + 1, Reason: fmt.Sprintf("unit price must be positive, got %g", price)}
		}
		if _, exists := prices[diameter]; exists {
			return nil, &ConfigurationError{File: path, Line: i + 1, Reason: fmt.Sprintf("duplicate diameter %g", diameter)}
		}
		entries = append(entries, entry{diameter: diameter, unitPrice: price})
		prices[diameter] = price
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].diameter < entries[b].diameter
	})

	return &Catalog{entries: entries, prices: prices}, nil
}

// Size returns the number of commercial diameters in the catalog.
func (c *Catalog) Size() int {
	return len(c.entries)
}

// IndexToDiameter maps a genome index to the index-th smallest
// commercial diameter.
func (c *Catalog) IndexToDiameter(index int) (float64, error) {
	if index < 0 || index >= len(c.entries) {
		return 0, &IndexOutOfRangeError{Index: index, Size: len(c.entries)}
	}
	return c.entries[index].diameter, nil
}

// Diameters returns all catalog diameters in ascending order. The
// returned slice is a copy.
func (c *Catalog) Diameters() []float64 {
	out := make([]float64, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.diameter
	}
	return out
}

// UnitPrice returns the price per meter for a catalog diameter.
func (c *Catalog) UnitPrice(diameter float64) (float64, error) {
	price, ok := c.prices[diameter]
	if !ok {
		return 0, fmt.Errorf("diameter %g is not in the price catalog", diameter)
	}
	return price, nil
}
