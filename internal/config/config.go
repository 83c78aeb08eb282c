// Package config resolves yolo-tools settings from an optional YAML file,
// a .env file and YOLO_TOOLS_* environment variables.
//
// Precedence, highest first: command-line flags (applied by the caller),
// environment variables, the YAML file, env-default tags.
package config

import (
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/ironsheep/yolo-tools/internal/dataset"
)

// DefaultEnvFile is loaded when Load is given no env files.
const DefaultEnvFile = ".env"

// Config is the resolved tool configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" env:"YOLO_TOOLS_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogFormat string `yaml:"log_format" env:"YOLO_TOOLS_LOG_FORMAT" env-default:"console" env-description:"console or json"`

	Dataset  Dataset  `yaml:"dataset"`
	Detector Detector `yaml:"detector"`
	Output   Output   `yaml:"output"`
}

// Dataset holds the merge inputs.
type Dataset struct {
	ComponentsRoot string   `yaml:"components_root" env:"YOLO_TOOLS_COMPONENTS_ROOT" env-default:"data/raw/car_components" env-description:"components dataset root"`
	RacecarsRoot   string   `yaml:"racecars_root" env:"YOLO_TOOLS_RACECARS_ROOT" env-default:"data/raw/racecars" env-description:"racecars dataset root"`
	MergedRoot     string   `yaml:"merged_root" env:"YOLO_TOOLS_MERGED_ROOT" env-default:"data/merged" env-description:"merge destination"`
	Candidates     []string `yaml:"candidates" env:"YOLO_TOOLS_CANDIDATES" env-default:"racecar,car,vehicle" env-description:"racecar class names to look for, in priority order"`
	ComponentsTag  string   `yaml:"components_tag" env:"YOLO_TOOLS_COMPONENTS_TAG" env-default:"cc_"`
	RacecarsTag    string   `yaml:"racecars_tag" env:"YOLO_TOOLS_RACECARS_TAG" env-default:"rc_"`
}

// Detector points at the model server used by infer, eval and analyze.
type Detector struct {
	URL     string        `yaml:"url" env:"YOLO_TOOLS_DETECTOR_URL" env-default:"http://localhost:8000" env-description:"model server base URL"`
	Model   string        `yaml:"model" env:"YOLO_TOOLS_MODEL" env-description:"model weights passed to the model server"`
	Timeout time.Duration `yaml:"timeout" env:"YOLO_TOOLS_DETECTOR_TIMEOUT" env-default:"2m"`
}

// Output holds default output locations.
type Output struct {
	InferenceDir      string `yaml:"inference_dir" env:"YOLO_TOOLS_INFERENCE_DIR" env-default:"runs/detect"`
	VisualizationsDir string `yaml:"visualizations_dir" env:"YOLO_TOOLS_VISUALIZATIONS_DIR" env-default:"visualizations"`
	FiguresFile       string `yaml:"figures_file" env:"YOLO_TOOLS_FIGURES_FILE" env-default:"figures.tex"`
	TableFile         string `yaml:"table_file" env:"YOLO_TOOLS_TABLE_FILE" env-default:"table_metrics.tex"`
	MaxSide           int    `yaml:"max_side" env:"YOLO_TOOLS_MAX_SIDE" env-default:"1280" env-description:"longest side of rendered images, 0 keeps the size"`
}

// Load reads the configuration. Env files are loaded into the process
// environment first without overriding variables that are already set; a
// missing env file is ignored. An empty path reads the environment only.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "failed to load %s", f)
		}
	}

	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to read environment")
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return cfg, nil
}

// MergeOptions converts the dataset settings into merge options.
func (c *Config) MergeOptions() dataset.Options {
	return dataset.Options{
		ComponentsRoot: c.Dataset.ComponentsRoot,
		RacecarsRoot:   c.Dataset.RacecarsRoot,
		MergedRoot:     c.Dataset.MergedRoot,
		Candidates:     c.Dataset.Candidates,
		ComponentsTag:  c.Dataset.ComponentsTag,
		RacecarsTag:    c.Dataset.RacecarsTag,
		WriteManifest:  true,
	}
}

// Usage describes every environment variable Load reads.
func Usage() (string, error) {
	return cleanenv.GetDescription(&Config{}, nil)
}
