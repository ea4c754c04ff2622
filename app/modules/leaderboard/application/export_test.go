package leaderboardservice

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

func TestExportStandingsXLSX(t *testing.T) {
	problemA := uuid.New()
	problemB := uuid.New()
	board := leaderboarddomain.Leaderboard{
		ContestID: uuid.New(),
		Rows: leaderboarddomain.Rows{
			{
				User:       contestdomain.UserRef{ID: uuid.New(), Username: "bob"},
				TotalScore: 95,
				Problems: []leaderboarddomain.ProblemScore{
					{ProblemKey: "A", ProblemID: problemA, Score: 70},
					{ProblemKey: "B", ProblemID: problemB, Score: 25},
				},
			},
			{
				User:       contestdomain.UserRef{ID: uuid.New(), Username: "alice"},
				TotalScore: 40,
				Problems: []leaderboarddomain.ProblemScore{
					{ProblemKey: "A", ProblemID: problemA, Score: 40},
				},
			},
		},
	}

	data, err := ExportStandingsXLSX(board)
	if err != nil {
		t.Fatalf("ExportStandingsXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Standings")
	if err != nil {
		t.Fatalf("GetRows returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("workbook has %d rows, want header + 2", len(rows))
	}

	wantHeader := []string{"Rank", "Username", "Total", "A", "B"}
	for i, title := range wantHeader {
		if rows[0][i] != title {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], title)
		}
	}

	if rows[1][0] != "1" || rows[1][1] != "bob" || rows[1][2] != "95" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][1] != "alice" || rows[2][3] != "40" {
		t.Errorf("second data row = %v", rows[2])
	}
	// alice never touched problem B; the cell stays blank.
	if len(rows[2]) > 4 && rows[2][4] != "" {
		t.Errorf("expected blank B cell for alice, got %q", rows[2][4])
	}
}

func TestExportStandingsXLSX_EmptyBoard(t *testing.T) {
	board := leaderboarddomain.Leaderboard{ContestID: uuid.New(), Rows: leaderboarddomain.Rows{}}

	data, err := ExportStandingsXLSX(board)
	if err != nil {
		t.Fatalf("ExportStandingsXLSX returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Standings")
	if err != nil {
		t.Fatalf("GetRows returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("workbook has %d rows, want header only", len(rows))
	}
}
