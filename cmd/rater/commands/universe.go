package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "피어 유니버스 관리",
	Long: `섹터 피어를 찾는 데 사용하는 종목 유니버스를 관리합니다.

Subcommands:
  refresh  - 구성 종목 목록 다시 수집 (S&P 500)
  list     - 섹터별 종목 조회

Example:
  go run ./cmd/rater universe refresh
  go run ./cmd/rater universe list
  go run ./cmd/rater universe list --sector Technology`,
}

var (
	universeRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "구성 종목 목록 다시 수집",
		RunE:  runUniverseRefresh,
	}

	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "섹터별 종목 조회",
		RunE:  runUniverseList,
	}

	universeSector string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeRefreshCmd)
	universeCmd.AddCommand(universeListCmd)

	universeListCmd.Flags().StringVar(&universeSector, "sector", "", "섹터 이름 (생략 시 섹터 목록)")
}

func runUniverseRefresh(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	count, err := a.universe.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh universe: %w", err)
	}

	printSuccess(out, fmt.Sprintf("Universe refreshed: %d constituents in %.2fs", count, time.Since(start).Seconds()))
	if a.db == nil {
		printInfo(out, "DATABASE_URL not set; the refreshed list was not persisted")
	}
	return nil
}

func runUniverseList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if universeSector == "" {
		sectors, err := a.universe.Sectors(ctx)
		if err != nil {
			return fmt.Errorf("list sectors: %w", err)
		}
		widths := []int{28, 6}
		printTableHeader(out, []string{"Sector", "Count"}, widths)
		for _, sector := range sectors {
			tickers, err := a.universe.Members(ctx, sector)
			if err != nil {
				return fmt.Errorf("list %s: %w", sector, err)
			}
			printTableRow(out, []string{sector, fmt.Sprintf("%d", len(tickers))}, widths)
		}
		return nil
	}

	tickers, err := a.universe.Members(ctx, universeSector)
	if err != nil {
		return fmt.Errorf("list %s: %w", universeSector, err)
	}
	if len(tickers) == 0 {
		printWarning(out, fmt.Sprintf("No constituents in sector %q", universeSector))
		return nil
	}

	fmt.Fprintf(out, "%s (%d)\n", universeSector, len(tickers))
	for _, ticker := range tickers {
		fmt.Fprintf(out, "   • %s\n", ticker)
	}
	return nil
}
