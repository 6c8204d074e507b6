package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Liszten/kpiComp/internal/analysis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "종목 가치 등급 분석",
	Long: `종목의 KPI를 조회하고 섹터 피어 중앙값과 비교해 1-10 등급을 산출합니다.

이 명령어는:
- 종목 정보 조회 (Yahoo Finance)
- 같은 섹터 피어의 KPI 수집 및 중앙값 계산
- 절대/상대 점수 결합 후 등급 출력

Example:
  go run ./cmd/rater analyze AAPL
  go run ./cmd/rater analyze msft --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 형식으로 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := func(p analysis.Progress) {
		if analyzeJSON {
			return
		}
		switch p.Stage {
		case analysis.StageFetch:
			fmt.Fprintf(out, "[Analyze] Fetching %s...\n", p.Ticker)
		case analysis.StagePeers:
			fmt.Fprintln(out, "[Analyze] Loading sector peers...")
		case analysis.StagePeerFetch:
			if p.Done == p.Total || p.Done%25 == 0 {
				fmt.Fprintf(out, "[Analyze] Peer data [%d/%d]\n", p.Done, p.Total)
			}
		case analysis.StageRating:
			fmt.Fprintf(out, "[Analyze] Rating against %d peers\n", p.Total)
		}
	}

	report, err := a.analysis.AnalyzeWithProgress(ctx, ticker, progress)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", ticker, err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(out, report)
	return nil
}
