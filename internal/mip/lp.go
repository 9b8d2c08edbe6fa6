package mip

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

const lpTermsPerLine = 8

// WriteLP writes the model in CPLEX LP text format.
func (m *Model) WriteLP(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if m.Name != "" {
		fmt.Fprintf(bw, "\\ %s\n", m.Name)
	}
	bw.WriteString("Minimize\n obj:")
	obj := make([]Term, 0, len(m.Vars))
	for j, v := range m.Vars {
		if v.Cost != 0 {
			obj = append(obj, Term{Col: j, Coef: v.Cost})
		}
	}
	m.writeTerms(bw, obj)
	bw.WriteString("\nSubject To\n")
	for r, row := range m.Rows {
		fmt.Fprintf(bw, " %s:", m.rowName(r))
		m.writeTerms(bw, row.Terms)
		fmt.Fprintf(bw, " %s %s\n", row.Sense, formatNumber(row.RHS))
	}

	bw.WriteString("Bounds\n")
	var binaries, generals []int
	for j, v := range m.Vars {
		if v.Binary() {
			binaries = append(binaries, j)
			continue
		}
		if v.Integer {
			generals = append(generals, j)
		}
		fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), m.colName(j), formatNumber(v.Upper))
	}
	if len(binaries) > 0 {
		bw.WriteString("Binaries\n")
		m.writeNames(bw, binaries)
	}
	if len(generals) > 0 {
		bw.WriteString("Generals\n")
		m.writeNames(bw, generals)
	}
	bw.WriteString("End\n")

	return bw.Flush()
}

func (m *Model) writeTerms(bw *bufio.Writer, terms []Term) {
	if len(terms) == 0 {
		bw.WriteString(" 0")
		return
	}
	for k, t := range terms {
		if k > 0 && k%lpTermsPerLine == 0 {
			bw.WriteString("\n  ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatNumber(coef), m.colName(t.Col))
	}
}

func (m *Model) writeNames(bw *bufio.Writer, cols []int) {
	for k, j := range cols {
		if k%lpTermsPerLine == 0 {
			if k > 0 {
				bw.WriteByte('\n')
			}
			bw.WriteByte(' ')
		}
		bw.WriteString(" " + m.colName(j))
	}
	bw.WriteByte('\n')
}

func (m *Model) colName(j int) string {
	if name := m.Vars[j].Name; name != "" {
		return name
	}
	return "x" + strconv.Itoa(j)
}

func (m *Model) rowName(r int) string {
	if name := m.Rows[r].Name; name != "" {
		return name
	}
	return "c" + strconv.Itoa(r)
}

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
