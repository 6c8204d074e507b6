package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Liszten/kpiComp/pkg/config"
	"github.com/Liszten/kpiComp/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL 관리",
	Long: `유니버스와 평가 이력을 저장하는 데이터베이스를 관리합니다.

Subcommands:
  check    - 연결 테스트 및 풀 통계
  migrate  - 스키마 생성

Example:
  go run ./cmd/rater db check
  go run ./cmd/rater db migrate`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "연결 테스트 및 풀 통계",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "스키마 생성",
		RunE:  runDBMigrate,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}

func openDB(cmd *cobra.Command) (*database.DB, error) {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "✅ Config loaded (ENV: %s)\n", cfg.Env)

	db, err := database.New(cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	fmt.Fprintf(out, "   Database URL: %s\n\n", maskPassword(cfg.Database.URL))
	return db, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== kpiComp Database Connection Test ===")

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	printSuccess(out, "Health Check Results:")
	fmt.Fprintf(out, "   Healthy: %v\n", status.Healthy)
	fmt.Fprintf(out, "   Response Time: %v\n", status.ResponseTime)
	fmt.Fprintf(out, "   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

	fmt.Fprintln(out, "📊 Connection Pool Statistics:")
	fmt.Fprintf(out, "   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Fprintf(out, "   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Fprintf(out, "   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Fprintf(out, "   Idle Connections: %d\n", status.Stats.IdleConns)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	printSuccess(out, "Schema up to date (data.universe, data.rating_history)")
	return nil
}
