package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/yolo-tools/internal/config"
	"github.com/ironsheep/yolo-tools/internal/detect"
	"github.com/ironsheep/yolo-tools/internal/logging"
)

// app holds state shared by every subcommand, filled in before each run.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "yolo-tools",
		Short: "Prepare and evaluate YOLO datasets for racecar component detection",
		Long: `yolo-tools merges a car-components dataset with a racecars dataset into one
YOLO training tree, renders labels for inspection, and drives an external
model server for inference, evaluation and LaTeX report generation.

Settings come from --config (YAML), a .env file and YOLO_TOOLS_* environment
variables; flags override them. Logs go to stderr.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMergeCmd(a),
		newInferCmd(a),
		newEvalCmd(a),
		newAnalyzeCmd(a),
		newLatexTableCmd(a),
		newLatexFiguresCmd(a),
		newRenderCmd(a),
		newCropCmd(a),
		newStatsCmd(a),
		newServeCmd(a),
		newEnvCmd(),
		newVersionCmd(),
	)

	// Wrap every RunE so failures carry an exit code.
	for _, c := range root.Commands() {
		if c.RunE == nil {
			continue
		}
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return classify(run(cmd, args))
		}
	}
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// client builds a model server client, preferring model over the configured
// weights.
func (a *app) client(model string) (*detect.Client, error) {
	if model == "" {
		model = a.cfg.Detector.Model
	}
	if model == "" {
		return nil, &exitError{code: exitConfig, err: errors.New("model not specified (use --model or set YOLO_TOOLS_MODEL)")}
	}
	return detect.NewClient(a.cfg.Detector.URL, model, a.cfg.Detector.Timeout, a.logger), nil
}

// orDefault returns value, or fallback when value is empty.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func requireFlag(name, value string) error {
	if value == "" {
		return &exitError{code: exitConfig, err: errors.Errorf("--%s is required", name)}
	}
	return nil
}
