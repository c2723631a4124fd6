// Package logging renders the run report and the sweep and effects
// visualizations for a mix.
package logging

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingValue is the placeholder for values that are absent or not finite.
const MissingValue = "-"

// MetricRow is one labelled row of a MetricTable. Values are pre-formatted
// so a table can mix units and precision.
type MetricRow struct {
	Label  string
	Values []string // one per header; empty cells render as MissingValue
	Unit   string   // e.g. "Hz", empty for unitless
	Note   string
}

// MetricTable is a small aligned table: a left-aligned label column,
// right-aligned value columns, then optional unit and note columns.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// NewMetricTable creates an empty table with the given value headers.
func NewMetricTable(headers ...string) *MetricTable {
	return &MetricTable{Headers: headers}
}

// AddRow appends a row of pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, note string) {
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: values, Unit: unit, Note: note})
}

// AddMetricRow appends a row of numbers with the given precision. NaN
// renders as MissingValue.
func (t *MetricTable) AddMetricRow(label string, values []float64, decimals int, unit string, note string) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = formatMetric(v, decimals)
	}
	t.AddRow(label, cells, unit, note)
}

// tableLayout holds the computed column widths.
type tableLayout struct {
	label   int
	values  []int
	unit    int
	hasNote bool
}

func (t *MetricTable) layout() tableLayout {
	l := tableLayout{values: make([]int, len(t.Headers))}
	for i, h := range t.Headers {
		l.values[i] = len(h)
	}
	for _, row := range t.Rows {
		l.label = max(l.label, len(row.Label))
		l.unit = max(l.unit, len(row.Unit))
		l.hasNote = l.hasNote || row.Note != ""
		for i := range l.values {
			l.values[i] = max(l.values[i], len(row.cell(i)))
		}
	}
	return l
}

func (r MetricRow) cell(i int) string {
	if i < len(r.Values) && r.Values[i] != "" {
		return r.Values[i]
	}
	return MissingValue
}

// String renders the table, or "" when it has no rows. Every cell is
// followed by two spaces and the unit by one.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}
	l := t.layout()

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", l.label+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", l.values[i], h)
	}
	if l.unit > 0 {
		sb.WriteString(strings.Repeat(" ", l.unit+1))
	}
	if l.hasNote {
		sb.WriteString("Notes")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", l.label, row.Label)
		for i := range t.Headers {
			fmt.Fprintf(&sb, "%*s  ", l.values[i], row.cell(i))
		}
		if l.unit > 0 {
			fmt.Fprintf(&sb, "%-*s ", l.unit, row.Unit)
		}
		if l.hasNote {
			sb.WriteString(row.Note)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatMetric formats value to decimals places. Tiny non-zero values use
// scientific notation so they do not read as zero.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return strconv.FormatFloat(value, 'f', decimals, 64)
}

// formatMetricSigned is formatMetric with an explicit sign, for gains.
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	s := strconv.FormatFloat(value, 'f', decimals, 64)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}
