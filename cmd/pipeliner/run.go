package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/elitr/pipeliner/pkg/config"
	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/history"
	"github.com/elitr/pipeliner/pkg/log"
	"github.com/elitr/pipeliner/pkg/metrics"
	"github.com/elitr/pipeliner/pkg/pipeline"
	"github.com/elitr/pipeliner/pkg/runtime"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest.yaml>",
	Short: "Plan and run the pipeline declared in a manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("silent", false, "suppress live stderr tailing; node stderr is still captured to its log file")
	runCmd.Flags().Int("port-low", endpoint.DefaultLow, "low end (inclusive) of the endpoint allocation pool")
	runCmd.Flags().Int("port-high", endpoint.DefaultHigh, "high end (exclusive) of the endpoint allocation pool")
	runCmd.Flags().String("logs-dir", "", "override the manifest's logsDir")
	runCmd.Flags().String("data-dir", ".", "directory for the run history ledger")
	runCmd.Flags().String("metrics-addr", "", "if set, serve Prometheus metrics and health endpoints on this address")
	runCmd.Flags().String("containerd-socket", "", "containerd socket for Image-declaring nodes (empty disables container-backed nodes)")
}

func runRun(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	silent, _ := cmd.Flags().GetBool("silent")
	portLow, _ := cmd.Flags().GetInt("port-low")
	portHigh, _ := cmd.Flags().GetInt("port-high")
	logsDirFlag, _ := cmd.Flags().GetString("logs-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	containerdSocket, _ := cmd.Flags().GetString("containerd-socket")

	manifest, err := config.Load(manifestPath)
	if err != nil {
		return err
	}

	logsDir := manifest.LogsDir
	if logsDirFlag != "" {
		logsDir = logsDirFlag
	}
	logsDir = filepath.Join(logsDir, time.Now().Format("20060102-150405"))

	g, err := manifest.Build()
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	pool := endpoint.New(portLow, portHigh)
	p := &pipeline.Pipeline{Graph: g}
	plan, err := p.CreatePipeline(pool)
	if err != nil {
		return fmt.Errorf("plan pipeline: %w", err)
	}

	logger := log.WithComponent("cli")

	hist, err := history.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	entrypoints := make(map[string]int, len(plan.Entrypoints))
	for _, ep := range plan.Entrypoints {
		entrypoints[ep.NodeName] = ep.Endpoint
		fmt.Printf("# %s entrypoint: [%d]\n", ep.NodeName, ep.Endpoint)
	}
	nodeLabels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeLabels[n.Name] = n.Label
	}

	hostname, _ := os.Hostname()
	run, err := hist.NewRun(manifestPath, hostname, logsDir, entrypoints, nodeLabels)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	if err := writeInfoFile(logsDir, run.ID, logsDir); err != nil {
		logger.Warn().Err(err).Msg("failed to write INFO file")
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	var containerdDial func() (*runtime.ContainerdLauncher, error)
	if containerdSocket != "" {
		containerdDial = func() (*runtime.ContainerdLauncher, error) {
			return runtime.NewContainerdLauncher(containerdSocket)
		}
	}

	sup := runtime.NewSupervisor(g, plan, logsDir, silent, containerdDial)

	sampler := metrics.NewEdgeSampler(sup.ActiveNodes)
	sampler.Start(2 * time.Second)
	defer sampler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("received shutdown signal")
		cancel()
	}()

	runErr := sup.Run(ctx)
	if err := hist.Finish(run, runErr); err != nil {
		logger.Warn().Err(err).Msg("failed to record run completion")
	}
	return runErr
}

// writeInfoFile records the run's id and log directory at
// "{logsDir}/INFO", the Go equivalent of the original pipeline's
// container-name-and-logdir marker file.
func writeInfoFile(logsDir, runID, logDir string) error {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(logsDir, "INFO")
	content := fmt.Sprintf("run: %s\nlogdir: %s\n", runID, logDir)
	return os.WriteFile(path, []byte(content), 0644)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	fmt.Printf("metrics endpoint: http://%s/metrics\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
	}
}
