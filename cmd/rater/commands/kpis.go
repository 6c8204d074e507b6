package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// kpisCmd represents the kpis command
var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "KPI 카탈로그 조회",
	Long: `등급 계산에 사용하는 KPI 정의와 가중치를 출력합니다.

RATING_CATALOG_PATH 가 설정되어 있으면 해당 YAML 카탈로그를 사용합니다.

Example:
  go run ./cmd/rater kpis`,
	RunE: runKPIs,
}

func init() {
	rootCmd.AddCommand(kpisCmd)
}

func runKPIs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	engine := a.analysis.Engine()
	weights := engine.Weights()

	widths := []int{20, 26, 6, 8, 8, 6}
	printTableHeader(out, []string{"Key", "Name", "Weight", "Best", "Worst", "Lower"}, widths)
	for _, def := range engine.Catalog().Definitions() {
		lower := ""
		if def.LowerIsBetter {
			lower = "yes"
		}
		printTableRow(out, []string{
			def.Key,
			def.DisplayName,
			fmt.Sprintf("%.0f%%", def.Weight*100),
			fmt.Sprintf("%g", def.AbsBest),
			fmt.Sprintf("%g", def.AbsWorst),
			lower,
		}, widths)
	}

	fmt.Fprintln(out)
	printKeyValue(out, "Absolute", fmt.Sprintf("%.2f", weights.Absolute), 8)
	printKeyValue(out, "Relative", fmt.Sprintf("%.2f", weights.Relative), 8)
	return nil
}
