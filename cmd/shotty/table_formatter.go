package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

// stripAnsiCodes removes ANSI color codes before widths are measured.
func stripAnsiCodes(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// visibleWidth is the terminal cell width of s; wide CJK runes take two cells.
func visibleWidth(s string) int {
	return runewidth.StringWidth(stripAnsiCodes(s))
}

// TableFormatter buffers rows and renders them as aligned columns.
type TableFormatter struct {
	Headers []string
	Rows    [][]string
	Padding int
}

// NewTableFormatter creates a table with the given column headers.
func NewTableFormatter(padding int, headers ...string) *TableFormatter {
	return &TableFormatter{
		Headers: headers,
		Padding: padding,
	}
}

// AddRow appends a row. Missing cells render empty and extra cells are dropped.
func (tf *TableFormatter) AddRow(cells ...string) {
	row := make([]string, len(tf.Headers))
	copy(row, cells)
	tf.Rows = append(tf.Rows, row)
}

func (tf *TableFormatter) columnWidths() []int {
	widths := make([]int, len(tf.Headers))
	for i, h := range tf.Headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range tf.Rows {
		for i, cell := range row {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// formatLine pads every cell but the last to its column width.
func (tf *TableFormatter) formatLine(cells []string, widths []int) string {
	var line strings.Builder
	for i, cell := range cells {
		line.WriteString(cell)
		if i == len(cells)-1 {
			break
		}
		if pad := widths[i] - visibleWidth(cell); pad > 0 {
			line.WriteString(strings.Repeat(" ", pad))
		}
		line.WriteString(strings.Repeat(" ", tf.Padding))
	}
	return strings.TrimRight(line.String(), " ")
}

// FormatHeader returns the header line and its dashed underline.
func (tf *TableFormatter) FormatHeader() string {
	if len(tf.Headers) == 0 {
		return ""
	}
	widths := tf.columnWidths()

	dashes := make([]string, len(widths))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	return tf.formatLine(tf.Headers, widths) + "\n" + tf.formatLine(dashes, widths)
}

// FormatRow returns one rendered row, or "" when the index is out of range.
func (tf *TableFormatter) FormatRow(rowIndex int) string {
	if rowIndex < 0 || rowIndex >= len(tf.Rows) {
		return ""
	}
	return tf.formatLine(tf.Rows[rowIndex], tf.columnWidths())
}

// Render writes the header and every row. An empty table writes nothing.
func (tf *TableFormatter) Render(w io.Writer) error {
	if len(tf.Rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, tf.FormatHeader()); err != nil {
		return err
	}
	for i := range tf.Rows {
		if _, err := fmt.Fprintln(w, tf.FormatRow(i)); err != nil {
			return err
		}
	}
	return nil
}
