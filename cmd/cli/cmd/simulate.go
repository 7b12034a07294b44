package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/streamsim/dataflow-sim/internal/keygen"
	"github.com/streamsim/dataflow-sim/internal/service"
	"github.com/streamsim/dataflow-sim/pkg/config"
	apperrors "github.com/streamsim/dataflow-sim/pkg/errors"
	"github.com/streamsim/dataflow-sim/pkg/telemetry"
	"github.com/streamsim/dataflow-sim/pkg/utils"
)

var (
	simConfigPath string
	simKeyGenPath string
	simStreamPath string
	simLogsDir    string
)

// simulateCmd runs one simulation from a topology/keygen config, either
// generating synthetic traffic or replaying a recorded key stream.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a dataflow simulation from a topology/keygen configuration",
	Long: `Run a discrete-step simulation of a staged dataflow.

Exactly one of --key_gen or --stream is required. --key_gen writes key
traffic generated from the config's keygen section to files instead of
simulating; --stream simulates by replaying a previously recorded stream
file.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	binName := BinName()
	simulateCmd.Example = fmt.Sprintf(`  # Generate key stream files (stream0, stream1, ...) from the config
  %s simulate --config ./configs/zipf.yaml --key_gen ./streams/stream

  # Simulate while replaying a previously recorded key stream
  %s simulate --config ./configs/zipf.yaml --stream ./streams/stream0.txt

  # Write the three log streams to a directory
  %s simulate --config ./configs/zipf.yaml --stream ./streams/stream0.txt --logs ./logs`, binName, binName, binName)

	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "Topology/keygen configuration file (required)")
	simulateCmd.Flags().StringVar(&simKeyGenPath, "key_gen", "", "Write generated key stream(s) to this path instead of simulating")
	simulateCmd.Flags().StringVar(&simStreamPath, "stream", "", "Replay a recorded key stream file instead of generating one")
	simulateCmd.Flags().StringVar(&simLogsDir, "logs", "", "Directory for the default/per-node/key-statistics log streams")
	simulateCmd.MarkFlagRequired("config")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if simKeyGenPath != "" && simStreamPath != "" {
		return apperrors.New(apperrors.CodeConfigError, "--key_gen and --stream are mutually exclusive")
	}
	if simKeyGenPath == "" && simStreamPath == "" {
		return apperrors.New(apperrors.CodeConfigError, "one of --key_gen or --stream is required")
	}

	if _, err := os.Stat(simConfigPath); os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.CodeInputError, fmt.Sprintf("config file not found: %s", simConfigPath), err)
	}

	cfg, err := config.Load(simConfigPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("telemetry disabled: %v", err)
	} else {
		defer shutdown(ctx)
	}

	stepLogger, nodeLogger, keyLogger, err := buildLogStreams(simLogsDir, log)
	if err != nil {
		return err
	}

	if simKeyGenPath != "" {
		return runKeyGen(cfg, keyLogger)
	}

	svc, err := service.New(cfg, stepLogger)
	if err != nil {
		return err
	}
	svc.SetNodeLogger(nodeLogger)

	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	opts := service.RunOptions{
		Name:       filepath.Base(simConfigPath),
		ConfigPath: simConfigPath,
		Persist:    true,
	}

	if simStreamPath != "" {
		batches, err := loadStreamFile(simStreamPath)
		if err != nil {
			return err
		}
		opts.Batches = batches
	}

	log.Info("=== Dataflow Simulator ===")
	log.Info("Config: %s", simConfigPath)
	if simStreamPath != "" {
		log.Info("Stream: %s (replayed)", simStreamPath)
	} else {
		log.Info("Stream: generated from keygen config")
	}

	summary, err := svc.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	log.Info("=== Simulation Complete ===")
	log.Info("Steps run:       %d", summary.StepsRun)
	log.Info("Emissions:       %d", summary.EmissionCount)
	log.Info("Total processed: %d", summary.TotalProcessed)
	log.Info("Total overdue:   %d", summary.TotalOverdue)
	log.Info("Total expired:   %d", summary.TotalExpired)
	log.Info("Duration:        %s", summary.Duration)

	return nil
}

// runKeyGen writes generated key streams to disk instead of simulating,
// one file per configured stream, logging each step's key-frequency
// breakdown to the key-statistics stream.
func runKeyGen(cfg *config.Config, keyLogger utils.Logger) error {
	ext := filepath.Ext(simKeyGenPath)
	base := simKeyGenPath[:len(simKeyGenPath)-len(ext)]

	for i := 0; i < cfg.Keygen.Streams; i++ {
		gen, err := keygen.NewGenerator(cfg.Keygen, int64(i))
		if err != nil {
			return err
		}

		outPath := fmt.Sprintf("%s%d%s", base, i, ext)
		f, err := os.Create(outPath)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInputError, fmt.Sprintf("creating stream file %s", outPath), err)
		}

		for step := 0; step < cfg.Keygen.Steps; step++ {
			keys := gen.Step()
			logKeyStatistics(keyLogger, step, keys)
			line := ""
			for j, k := range keys {
				if j > 0 {
					line += " "
				}
				line += k
			}
			if _, err := fmt.Fprintln(f, line); err != nil {
				f.Close()
				return err
			}
		}
		f.Close()
	}
	return nil
}

// loadStreamFile reads a recorded stream file into per-step batches: one
// line per step, keys separated by spaces, an empty line meaning no real
// keys that step.
func loadStreamFile(path string) ([][]string, error) {
	src, err := keygen.Create(&keygen.SourceConfig{
		Type: keygen.TypeFile,
		Name: filepath.Base(path),
		Options: map[string]interface{}{
			"path": path,
		},
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ctx := context.Background()
	var batches [][]string
	for {
		batch, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// buildLogStreams constructs the simulation's three log streams: the
// default/diagnostic stream, the per-node stream (one node's admit/
// process/expire line per step), and the key-statistics stream. Writes
// under dir when given, or to stdout/null sinks otherwise.
func buildLogStreams(dir string, fallback utils.Logger) (defaultLogger, nodeLogger, keyLogger utils.Logger, err error) {
	if dir == "" {
		return fallback, fallback, &utils.NullLogger{}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.CodeInputError, fmt.Sprintf("creating log directory %s", dir), err)
	}

	defaultLogger, err = utils.NewFileLogger(utils.LevelInfo, filepath.Join(dir, "default.log"))
	if err != nil {
		return nil, nil, nil, err
	}
	nodeLogger, err = utils.NewFileLogger(utils.LevelInfo, filepath.Join(dir, "node.log"))
	if err != nil {
		return nil, nil, nil, err
	}
	keyLogger, err = utils.NewFileLogger(utils.LevelInfo, filepath.Join(dir, "key-statistics.log"))
	if err != nil {
		return nil, nil, nil, err
	}
	return defaultLogger, nodeLogger, keyLogger, nil
}

// logKeyStatistics writes one step's sorted key-frequency breakdown to the
// key-statistics stream.
func logKeyStatistics(logger utils.Logger, step int, keys []string) {
	counts := make(map[string]int)
	for _, k := range keys {
		counts[k]++
	}
	logger.Info("Step %d key counts: %v", step, counts)
}
