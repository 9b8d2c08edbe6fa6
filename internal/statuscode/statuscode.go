// Package statuscode turns a plain-text list of solver status codes into C
// source: one #define per code and a switch that maps each enum constant to a
// Status object.
//
// The input is a sequence of four-line records:
//
//	101
//	CPXMIP_OPTIMAL
//	MIP_OPTIMAL
//	Optimal integer solution found
//
// holding the numeric value, the symbol to define, the enum constant used in
// the switch and a human-readable meaning.
package statuscode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrBadValue is returned when the first line of a record is not an integer.
	ErrBadValue = errors.New("status value is not an integer")
	// ErrTruncatedRecord is returned when the input ends inside a record.
	ErrTruncatedRecord = errors.New("truncated status record")
)

const linesPerRecord = 4

// Record is one status code.
type Record struct {
	Value   int
	Symbol  string
	Enum    string
	Meaning string
}

// Table holds records ordered by value, one per value.
type Table struct {
	Records []Record
}

// Len is the number of distinct status values.
func (t Table) Len() int {
	return len(t.Records)
}

// Parse reads four-line records from r. When a value repeats, the later
// record replaces the earlier one.
func Parse(r io.Reader) (Table, error) {
	byValue := make(map[int]Record)
	sc := bufio.NewScanner(r)

	var (
		rec  Record
		line int
	)
	for sc.Scan() {
		text := strings.TrimRight(sc.Text(), " \t\r")
		switch line % linesPerRecord {
		case 0:
			v, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil {
				return Table{}, fmt.Errorf("%w: line %d: %q", ErrBadValue, line+1, text)
			}
			rec = Record{Value: v}
		case 1:
			rec.Symbol = text
		case 2:
			rec.Enum = text
		case 3:
			rec.Meaning = text
			byValue[rec.Value] = rec
		}
		line++
	}
	if err := sc.Err(); err != nil {
		return Table{}, fmt.Errorf("read status codes: %w", err)
	}
	if rest := line % linesPerRecord; rest != 0 {
		return Table{}, fmt.Errorf("%w: %d of %d lines after line %d", ErrTruncatedRecord, rest, linesPerRecord, line-rest)
	}

	t := Table{Records: make([]Record, 0, len(byValue))}
	for _, v := range slices.Sorted(maps.Keys(byValue)) {
		t.Records = append(t.Records, byValue[v])
	}
	return t, nil
}

// Render writes the record count, the #define block and the switch statement.
func Render(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", t.Len())
	for _, rec := range t.Records {
		fmt.Fprintf(bw, "#define %s %d\n", rec.Symbol, rec.Value)
	}

	bw.WriteString("switch(status) {\n")
	for _, rec := range t.Records {
		fmt.Fprintf(bw, "case %s:\n", rec.Enum)
		fmt.Fprintf(bw, "  return Status(\"%s\", %s);\n", rec.Meaning, rec.Symbol)
	}
	bw.WriteString("default:\n")
	bw.WriteString("  return Status(\"Unknown status code from Cplex\");\n")
	bw.WriteString("}\n")

	return bw.Flush()
}
