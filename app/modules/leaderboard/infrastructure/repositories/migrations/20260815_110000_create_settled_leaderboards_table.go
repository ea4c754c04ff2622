package leaderboardmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	leaderboarddb "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating settled_leaderboards table...")

		if _, err := db.NewCreateTable().Model((*leaderboarddb.SettledLeaderboard)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS idx_settled_leaderboards_contest_id ON settled_leaderboards (contest_id)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Settled leaderboards table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping settled_leaderboards table...")

		if _, err := db.NewDropTable().Model((*leaderboarddb.SettledLeaderboard)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Settled leaderboards table dropped successfully!")
		return nil
	})
}
