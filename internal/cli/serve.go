package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/api"
	"github.com/ppiankov/clauselens/internal/metrics"
	"github.com/ppiankov/clauselens/internal/pipeline"
)

var (
	serveAddr  string
	freeLimit  int
	serveRate  float64
	serveBurst int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve starts the HTTP API:
  GET  /health                        liveness and version
  GET  /metrics                       Prometheus metrics
  POST /api/v1/analyze                analyze {"text"} or {"url"}
  POST /api/v1/compare                compare {"text_a","text_b"}
  GET  /api/v1/usage                  remaining free analyses today
  GET  /api/v1/templates[/:id]        sample contracts
  POST /api/v1/templates/:id/analyze  analyze a sample contract
  POST /api/v1/share, GET /api/v1/share/:id  shareable reports

Each client IP gets a free daily quota (0 disables it) and a request rate limit.

Example:
  clauselens serve
  clauselens serve --addr :8080 --free-limit 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().IntVar(&freeLimit, "free-limit", 0, "free analyses per client per day, 0 for unlimited (default: server.free_daily_limit)")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 0, "requests per second per client, 0 disables (default: server.requests_per_second)")
	serveCmd.Flags().IntVar(&serveBurst, "burst", 0, "rate limit burst (default: server.burst)")

	addAnalysisFlags(serveCmd)
	addFetchFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if flags.Changed("free-limit") {
		cfg.Server.FreeDailyLimit = freeLimit
	}
	if flags.Changed("rate") {
		cfg.Server.RequestsPerSecond = serveRate
	}
	if flags.Changed("burst") {
		cfg.Server.Burst = serveBurst
	}

	m := metrics.New()
	p, err := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger), pipeline.WithObserver(m))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api.Version = Version
	srv := api.NewServer(cfg, p, api.WithLogger(logger), api.WithMetrics(m))

	fmt.Fprintf(os.Stderr, "ClauseLens API listening on %s\n", cfg.Server.Addr)
	return srv.Start(ctx)
}
