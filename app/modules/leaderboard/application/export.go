package leaderboardservice

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// ExportStandingsXLSX renders a leaderboard as an xlsx workbook: one
// "Standings" sheet with rank, username, total, and one column per problem
// in first-seen order. Rows must already be sorted.
func ExportStandingsXLSX(board leaderboarddomain.Leaderboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Standings"
	f.SetSheetName(f.GetSheetName(0), sheet)

	// Collect problem columns in the order they first appear across rows.
	var problemKeys []string
	seen := make(map[string]bool)
	for _, row := range board.Rows {
		for _, ps := range row.Problems {
			if !seen[ps.ProblemKey] {
				seen[ps.ProblemKey] = true
				problemKeys = append(problemKeys, ps.ProblemKey)
			}
		}
	}

	header := append([]string{"Rank", "Username", "Total"}, problemKeys...)
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range board.Rows {
		scores := make(map[string]int, len(row.Problems))
		for _, ps := range row.Problems {
			scores[ps.ProblemKey] = ps.Score
		}

		values := make([]interface{}, 0, len(header))
		values = append(values, i+1, row.User.Username, row.TotalScore)
		for _, key := range problemKeys {
			if score, ok := scores[key]; ok {
				values = append(values, score)
			} else {
				values = append(values, "")
			}
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
