package schema

import (
	"github.com/ajitpratap0/fexport/pkg/errors"
)

// MaxDecimalPrecision is the largest precision a decimal column may declare.
const MaxDecimalPrecision = 18

// Column describes one column of a result set.
type Column struct {
	// Name is the declared column name
	Name string `yaml:"name" json:"name"`
	// Title is the column title, used as a header label when requested
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	// Kind is the column data type
	Kind Kind `yaml:"type" json:"type"`
	// Length is the precision for decimals and the character count for CHAR/VARCHAR
	Length int `yaml:"length,omitempty" json:"length,omitempty"`
	// Scale is the number of fractional digits of a decimal
	Scale int `yaml:"scale,omitempty" json:"scale,omitempty"`
	// Nullable reports whether the column accepts nulls
	Nullable bool `yaml:"nullable" json:"nullable"`
	// Format is the warehouse display format, informational only
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Label returns the header label for the column. Titles fall back to the
// name when the column has none.
func (c Column) Label(useTitle bool) string {
	if useTitle && c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Labels returns the header labels for cols in order.
func Labels(cols []Column, useTitles bool) []string {
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label(useTitles)
	}
	return labels
}

// Validate checks the structural sanity of a column list: at least one
// column, every column named and typed, and no two columns sharing a label.
// Per-kind length checks belong to the codecs.
func Validate(cols []Column, useTitles bool) error {
	if len(cols) == 0 {
		return errors.New(errors.ErrorTypeSchemaMismatch, "no columns defined")
	}

	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return errors.Newf(errors.ErrorTypeSchemaMismatch, "column %d has no name", i)
		}
		if _, ok := kindNames[c.Kind]; !ok {
			return errors.Newf(errors.ErrorTypeUnsupportedType, "column %q has no supported type", c.Name).
				WithDetail("column", c.Name)
		}
		label := c.Label(useTitles)
		if prev, dup := seen[label]; dup {
			return errors.Newf(errors.ErrorTypeSchemaMismatch, "columns %d and %d share the label %q", prev, i, label).
				WithDetail("column", label)
		}
		seen[label] = i
	}
	return nil
}
