// Package report renders match results into downloadable XLSX workbooks.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

const sheetName = "Matches"

type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// WriteMatches renders one sheet: a header block describing the source
// record, then one row per ranked match.
func (w *XLSXWriter) WriteMatches(source *domain.Record, matches []domain.MatchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	head := [][]any{
		{"Source", source.DisplayTitle()},
		{"Kind", string(source.Kind)},
		{"File", source.Filename},
		{},
		{"Rank", "Title", "Kind", "File", "Score"},
	}
	for i, row := range head {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write header row: %w", err)
		}
	}

	for i, m := range matches {
		cell, err := excelize.CoordinatesToCellName(1, len(head)+i+1)
		if err != nil {
			return nil, fmt.Errorf("match cell: %w", err)
		}
		row := []any{i + 1, m.Title, string(m.Kind), m.Filename, m.Score}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write match row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
