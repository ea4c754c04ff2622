package leaderboardservice

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func standingsRows(totals ...int) leaderboarddomain.Rows {
	rows := make(leaderboarddomain.Rows, 0, len(totals))
	for i, total := range totals {
		rows = append(rows, leaderboarddomain.Row{
			User:       contestdomain.UserRef{ID: uuid.New(), Username: string(rune('a' + i))},
			TotalScore: total,
		})
	}
	return rows
}

func TestGenerateStandingsChart(t *testing.T) {
	png, err := GenerateStandingsChart(standingsRows(300, 120, 40), 10, DefaultChartPalette)
	if err != nil {
		t.Fatalf("GenerateStandingsChart returned error: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("output is not a PNG, first bytes: %x", png[:min(len(png), 8)])
	}
}

func TestGenerateStandingsChart_LimitClampsToRowCount(t *testing.T) {
	png, err := GenerateStandingsChart(standingsRows(10, 20), 50, DefaultChartPalette)
	if err != nil {
		t.Fatalf("GenerateStandingsChart returned error: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty chart output")
	}
}

func TestGenerateStandingsChart_UniformTotals(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		png, err := GenerateStandingsChart(standingsRows(5), 10, DefaultChartPalette)
		if err != nil {
			t.Fatalf("GenerateStandingsChart returned error: %v", err)
		}
		if !bytes.HasPrefix(png, pngMagic) {
			t.Error("output is not a PNG")
		}
	})

	t.Run("everyone at zero", func(t *testing.T) {
		png, err := GenerateStandingsChart(standingsRows(0, 0, 0), 10, DefaultChartPalette)
		if err != nil {
			t.Fatalf("GenerateStandingsChart returned error: %v", err)
		}
		if !bytes.HasPrefix(png, pngMagic) {
			t.Error("output is not a PNG")
		}
	})
}

func TestGenerateStandingsChart_AnonymousUserFallsBackToID(t *testing.T) {
	rows := leaderboarddomain.Rows{
		{User: contestdomain.UserRef{ID: uuid.New()}, TotalScore: 5},
	}
	if _, err := GenerateStandingsChart(rows, 1, DefaultChartPalette); err != nil {
		t.Fatalf("GenerateStandingsChart returned error: %v", err)
	}
}
