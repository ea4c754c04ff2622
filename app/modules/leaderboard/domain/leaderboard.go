package leaderboarddomain

import (
	"sort"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// ProblemScore is a user's best recorded score for one contest problem.
type ProblemScore struct {
	ProblemKey string    `json:"problemKey"`
	ProblemID  uuid.UUID `json:"problemId"`
	Score      int       `json:"score"`
}

// Row is one user's line on a contest leaderboard. TotalScore always equals
// the sum of the problem scores.
type Row struct {
	User       contestdomain.UserRef `json:"user"`
	TotalScore int                   `json:"totalScore"`
	Problems   []ProblemScore        `json:"problems"`
}

// Rows is the persisted row-set shape of a leaderboard.
type Rows []Row

// Leaderboard is the full scoreboard of one contest.
type Leaderboard struct {
	ContestID uuid.UUID `json:"contestId"`
	Rows      Rows      `json:"rows"`
}

// NewRow builds a zero-score row for a registrant.
func NewRow(user contestdomain.UserRef) Row {
	return Row{User: user, TotalScore: 0, Problems: []ProblemScore{}}
}

// InitialRows builds one zero-score row per approved registrant.
func InitialRows(roster []contestdomain.UserRef) Rows {
	rows := make(Rows, 0, len(roster))
	for _, user := range roster {
		rows = append(rows, NewRow(user))
	}
	return rows
}

// ApplyBest applies a best-of score update to the row. The stored score for a
// problem only ever increases; an equal score is a no-op so repeated grading
// of the same submission never triggers spurious updates. Returns true when
// the total changed.
func (r *Row) ApplyBest(problemKey string, problemID uuid.UUID, score int) bool {
	for i := range r.Problems {
		if r.Problems[i].ProblemKey == problemKey {
			if score <= r.Problems[i].Score {
				return false
			}
			r.TotalScore += score - r.Problems[i].Score
			r.Problems[i].Score = score
			r.Problems[i].ProblemID = problemID
			return true
		}
	}

	r.Problems = append(r.Problems, ProblemScore{
		ProblemKey: problemKey,
		ProblemID:  problemID,
		Score:      score,
	})
	r.TotalScore += score
	return score > 0
}

// Clone returns a deep copy of the row so cached state never escapes by
// reference.
func (r Row) Clone() Row {
	problems := make([]ProblemScore, len(r.Problems))
	copy(problems, r.Problems)
	r.Problems = problems
	return r
}

// Sort orders rows for presentation and persistence: total score descending,
// username ascending as the tiebreak. Deterministic order keeps the settled
// snapshot identical to the last live view.
func (rows Rows) Sort() {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].User.Username < rows[j].User.Username
	})
}
