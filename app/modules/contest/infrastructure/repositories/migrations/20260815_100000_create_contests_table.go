package contestmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating contests table...")

		if _, err := db.NewCreateTable().Model((*contestdb.Contest)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// Reconciliation scans for UPCOMING contests by start time.
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_contests_phase_start_time ON contests (phase, start_time)").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_contests_owner_id ON contests (owner_id)").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Contests table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping contests table...")

		if _, err := db.NewDropTable().Model((*contestdb.Contest)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Contests table dropped successfully!")
		return nil
	})
}
