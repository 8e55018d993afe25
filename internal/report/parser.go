package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// maxPreambleRows bounds how far down the header row is searched for.
const maxPreambleRows = 10

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser converts income statement CSV exports into Reports.
type Parser struct {
	rules *Rules
}

// NewParser returns a Parser using rules, or the embedded defaults when nil.
func NewParser(rules *Rules) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

// Rules returns the rule table the parser classifies with.
func (p *Parser) Rules() *Rules { return p.rules }

type cell struct {
	value float64
	ok    bool
}

type row struct {
	index   int
	line    int
	raw     string
	name    string
	amounts []cell
}

type monthColumn struct {
	index int
	label string
	month time.Time
}

// Parse decodes data into a Report. uploadedAt is recorded verbatim in the
// metadata. Parse either returns a complete Report or a *ParseError.
func (p *Parser) Parse(data []byte, uploadedAt time.Time) (*Report, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, parseErr(0, ErrEmptyInput, "input is empty")
	}

	records, lines, err := readRecords(data)
	if err != nil {
		return nil, err
	}

	headerAt := findHeader(records)
	if headerAt < 0 {
		return nil, parseErr(0, ErrBadHeader, "no month header found in the first %d rows", maxPreambleRows)
	}
	columns, err := monthColumns(records[headerAt], lines[headerAt])
	if err != nil {
		return nil, err
	}

	body := records[headerAt+1:]
	rows := make([]row, 0, len(body))
	for i, rec := range body {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		r := row{
			index:   i,
			line:    lines[headerAt+1+i],
			raw:     rec[0],
			name:    strings.TrimSpace(rec[0]),
			amounts: make([]cell, len(columns)),
		}
		for j, col := range columns {
			if col.index < len(rec) {
				v, ok := ParseAmount(rec[col.index])
				r.amounts[j] = cell{value: v, ok: ok}
			}
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, parseErr(lines[headerAt], ErrNoCategories, "no category rows below the header")
	}

	nodes := make([]Node, len(rows))
	for i, r := range rows {
		nodes[i] = Node{Depth: DetectDepth(r.raw), IsTotal: IsTotalRow(r.name)}
	}
	parents := AssignParents(nodes)

	rep := &Report{
		Categories:  make([]Category, 0, len(rows)),
		MonthlyData: make([]MonthlyAmount, 0, len(rows)*len(columns)),
	}
	for i, r := range rows {
		cat := Category{
			CategoryID:    categoryID(r.index),
			AccountName:   r.name,
			CategoryLevel: nodes[i].Depth,
			CategoryType:  p.rules.Classify(r.name, r.index, len(body)),
			IsTotal:       nodes[i].IsTotal,
			DisplayOrder:  r.index,
		}
		if pi := parents[i]; pi >= 0 {
			id := categoryID(rows[pi].index)
			name := rows[pi].name
			cat.ParentID = &id
			cat.ParentName = &name
		}
		rep.Categories = append(rep.Categories, cat)

		for j, c := range r.amounts {
			if !c.ok {
				continue
			}
			rep.MonthlyData = append(rep.MonthlyData, MonthlyAmount{
				CategoryID:  cat.CategoryID,
				AccountName: cat.AccountName,
				MonthYear:   columns[j].label,
				Amount:      c.value,
			})
		}
	}

	totals, err := computeTotals(p.rules, rows)
	if err != nil {
		return nil, err
	}
	rep.Totals = totals

	first, last := columns[0].month, columns[0].month
	labels := make([]string, len(columns))
	for i, col := range columns {
		labels[i] = col.label
		if col.month.Before(first) {
			first = col.month
		}
		if col.month.After(last) {
			last = col.month
		}
	}
	label, start, end := period(first, last)
	rep.Metadata = Metadata{
		ReportPeriod:    label,
		PeriodStart:     start,
		PeriodEnd:       end,
		UploadDate:      uploadedAt.UTC().Format(time.RFC3339),
		TotalCategories: len(rep.Categories),
		TotalDataPoints: len(rep.MonthlyData),
		MonthColumns:    labels,
	}
	return rep, nil
}

func categoryID(index int) string {
	return fmt.Sprintf("cat_%d", index)
}

// readRecords decodes all CSV records along with their starting line numbers.
func readRecords(data []byte) ([][]string, []int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, nil, parseErr(pe.StartLine, ErrMalformedCSV, "%v", pe.Err)
			}
			return nil, nil, parseErr(0, ErrMalformedCSV, "%v", err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

// findHeader returns the index of the first record carrying at least one
// month column, or -1.
func findHeader(records [][]string) int {
	for i := 0; i < len(records) && i < maxPreambleRows; i++ {
		for _, label := range records[i][1:] {
			if _, ok := parseMonth(label); ok {
				return i
			}
		}
	}
	return -1
}

func monthColumns(header []string, line int) ([]monthColumn, error) {
	var cols []monthColumn
	seen := make(map[time.Time]bool)
	for i := 1; i < len(header); i++ {
		label := strings.TrimSpace(header[i])
		if label == "" || strings.Contains(strings.ToLower(label), "total") {
			continue
		}
		m, ok := parseMonth(label)
		if !ok {
			return nil, parseErr(line, ErrBadHeader, "column %d header %q is not a month", i+1, label)
		}
		if seen[m] {
			return nil, parseErr(line, ErrBadHeader, "duplicate month column %q", label)
		}
		seen[m] = true
		cols = append(cols, monthColumn{index: i, label: label, month: m})
	}
	return cols, nil
}
