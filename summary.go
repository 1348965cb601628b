package mrp

import (
	"fmt"
	"strings"
)

// Fmter formats a column of values for display in a summary table.
// The second argument is the column heading, which may be used to set
// the field width.
type Fmter func(interface{}, string) []string

// StringFmt is a Fmter for columns of strings.
func StringFmt(x interface{}, h string) []string {

	y := x.([]string)
	w := len(h)
	for i := range y {
		if len(y[i]) > w {
			w = len(y[i])
		}
	}

	c := fmt.Sprintf("%%-%ds", w)
	z := make([]string, len(y))
	for i := range y {
		z[i] = fmt.Sprintf(c, y[i])
	}

	return z
}

// FloatFmt is a Fmter for columns of float64 values.
func FloatFmt(x interface{}, h string) []string {

	y := x.([]float64)
	z := make([]string, len(y))
	for i := range y {
		z[i] = fmt.Sprintf("%10.4f", y[i])
	}

	return z
}

// SummaryTable holds a text summary of an analysis: a title, a block
// of scalar facts at the top, and a column-oriented table below.
type SummaryTable struct {

	// Title
	Title string

	// Lines at the top of the summary, one fact per line
	Top []string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  Its concrete type should be an
	// array, e.g. of numbers or strings.
	Cols []interface{}

	// Messages displayed below the table
	Msg []string
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	// Format all cells up front so that column widths are known.
	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		if len(u) > 0 && len(u[0]) > w {
			w = len(u[0])
		}
		wx = append(wx, w)
	}

	// Total width of the table
	tw := len(wx) - 1
	for _, w := range wx {
		tw += w
	}
	if tw < len(s.Title) {
		tw = len(s.Title)
	}
	for _, x := range s.Top {
		if tw < len(x) {
			tw = len(x)
		}
	}

	line := func(c string) string {
		return strings.Repeat(c, tw) + "\n"
	}

	var buf strings.Builder

	// Center the title
	k := (tw - len(s.Title)) / 2
	if k < 0 {
		k = 0
	}
	buf.WriteString(strings.Repeat(" ", k))
	buf.WriteString(s.Title)
	buf.WriteString("\n")
	buf.WriteString(line("="))

	for _, x := range s.Top {
		buf.WriteString(x)
		buf.WriteString("\n")
	}
	if len(s.Top) > 0 {
		buf.WriteString(line("-"))
	}

	for j, c := range s.ColNames {
		if j > 0 {
			buf.WriteString(" ")
		}
		f := fmt.Sprintf("%%%ds", wx[j])
		buf.WriteString(fmt.Sprintf(f, c))
	}
	buf.WriteString("\n")
	buf.WriteString(line("-"))

	nrow := 0
	if len(tab) > 0 {
		nrow = len(tab[0])
	}
	for i := 0; i < nrow; i++ {
		for j := range tab {
			if j > 0 {
				buf.WriteString(" ")
			}
			f := fmt.Sprintf("%%%ds", wx[j])
			buf.WriteString(fmt.Sprintf(f, tab[j][i]))
		}
		buf.WriteString("\n")
	}
	buf.WriteString(line("-"))

	for _, msg := range s.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
