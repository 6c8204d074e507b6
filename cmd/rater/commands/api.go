package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Liszten/kpiComp/internal/api"
	"github.com/Liszten/kpiComp/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 종목 분석 엔드포인트 제공
- SCHEDULER_ENABLED=true 이면 스케줄러도 함께 시작

Endpoints:
  GET  /health                   - Health check
  GET  /api/kpis                 - KPI 카탈로그 조회
  GET  /api/analyze/{ticker}     - 종목 분석
  POST /api/clear-cache          - 섹터 캐시 초기화
  GET  /api/history/{ticker}     - 평가 이력 조회
  GET  /ws/analyze/{ticker}      - 진행 상황 스트리밍 분석

Example:
  go run ./cmd/rater api
  go run ./cmd/rater api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== kpiComp API Server ===")

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port":          a.cfg.Port,
		"env":           a.cfg.Env,
		"universe_size": a.universe.Size(),
	}).Info("Initializing API server")

	// Optional scheduler
	if a.cfg.SchedulerEnabled {
		sched, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("Scheduler started")
	}

	analysisHandler := handlers.NewAnalysisHandler(a.analysis, log)
	streamHandler := handlers.NewStreamHandler(a.analysis, log)
	router := api.NewRouter(analysisHandler, streamHandler, log)
	server := api.New(a.cfg, log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	log.Info("API server started successfully")
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(out, "\nAvailable endpoints:")
	fmt.Fprintln(out, "  GET  /health")
	fmt.Fprintln(out, "  GET  /api/kpis")
	fmt.Fprintln(out, "  GET  /api/analyze/{ticker}")
	fmt.Fprintln(out, "  POST /api/clear-cache")
	fmt.Fprintln(out, "  GET  /api/history/{ticker}")
	fmt.Fprintln(out, "  GET  /ws/analyze/{ticker}")
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
