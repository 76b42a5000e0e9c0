// Package config loads run configuration from YAML and the environment.
//
// Values are layered: defaults, then the optional YAML file, then
// APIBLEND_* environment variables. Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "APIBLEND_"

// Config is the full run configuration.
type Config struct {
	DataDir  string   `yaml:"data_dir" env:"DATA_DIR"`
	SaveDir  string   `yaml:"save_dir" env:"SAVE_DIR"`
	Datasets []string `yaml:"datasets" env:"DATASETS"`
	Splits   []string `yaml:"splits" env:"SPLITS"`
	Workers  int      `yaml:"workers" env:"WORKERS"`

	Segmenter  Segmenter  `yaml:"segmenter" envPrefix:"SEGMENTER_"`
	Parser     Parser     `yaml:"parser" envPrefix:"PARSER_"`
	Output     Output     `yaml:"output" envPrefix:"OUTPUT_"`
	Log        Log        `yaml:"log" envPrefix:"LOG_"`
	Paraphrase Paraphrase `yaml:"paraphrase" envPrefix:"PARAPHRASE_"`
	TopV2      TopV2      `yaml:"topv2" envPrefix:"TOPV2_"`
}

// Segmenter holds the clause segmentation heuristics.
type Segmenter struct {
	Delimiters       []string `yaml:"delimiters" env:"DELIMITERS"`
	NarrowDelimiters []string `yaml:"narrow_delimiters" env:"NARROW_DELIMITERS"`
	RepairArtifact   string   `yaml:"repair_artifact" env:"REPAIR_ARTIFACT"`
	DisableRepair    bool     `yaml:"disable_repair" env:"DISABLE_REPAIR"`
	PrevMinWords     int      `yaml:"prev_min_words" env:"PREV_MIN_WORDS"`
	PieceMinWords    int      `yaml:"piece_min_words" env:"PIECE_MIN_WORDS"`
}

// Parser selects the dependency parser and sentence splitter.
type Parser struct {
	// Kind is "heuristic" or "conllu".
	Kind   string `yaml:"kind" env:"KIND"`
	CoNLLU string `yaml:"conllu" env:"CONLLU"`

	// SentenceModel and SentenceTokenizer enable the ONNX sentence splitter.
	SentenceModel     string  `yaml:"sentence_model" env:"SENTENCE_MODEL"`
	SentenceTokenizer string  `yaml:"sentence_tokenizer" env:"SENTENCE_TOKENIZER"`
	SentenceThreshold float32 `yaml:"sentence_threshold" env:"SENTENCE_THRESHOLD"`
	PoolSize          int     `yaml:"pool_size" env:"POOL_SIZE"`
}

// Output controls what a run writes besides the split files.
type Output struct {
	Indent      int    `yaml:"indent" env:"INDENT"`
	Catalog     bool   `yaml:"catalog" env:"CATALOG"`
	SQLite      string `yaml:"sqlite" env:"SQLITE"`
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`
}

// Log configures process logging.
type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
	File  string `yaml:"file" env:"FILE"`
}

// Paraphrase configures the generative paraphrasing backend.
type Paraphrase struct {
	// Provider is "genai" or "openai".
	Provider     string        `yaml:"provider" env:"PROVIDER"`
	Model        string        `yaml:"model" env:"MODEL"`
	BatchSize    int           `yaml:"batch_size" env:"BATCH_SIZE"`
	RetryDelay   time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Temperature  float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxNewTokens int           `yaml:"max_new_tokens" env:"MAX_NEW_TOKENS"`
	Decoding     string        `yaml:"decoding" env:"DECODING"`
}

// TopV2 configures the TOPv2 conversion. DataDir, SaveDir, Workers and
// Output are shared with the other commands.
type TopV2 struct {
	Domains []string `yaml:"domains" env:"DOMAINS"`
	Splits  []string `yaml:"splits" env:"SPLITS"`
	// Parses is the JSON-lines file of precomputed annotation parses.
	Parses string `yaml:"parses" env:"PARSES"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Datasets: []string{"ATIS", "SNIPS"},
		Splits:   []string{"train", "dev", "test"},
		Workers:  1,
		Segmenter: Segmenter{
			Delimiters:       []string{"and also", "and then", ",", "and", "also"},
			NarrowDelimiters: []string{",", "and then"},
			RepairArtifact:   "and and",
			PrevMinWords:     3,
			PieceMinWords:    5,
		},
		Parser: Parser{
			Kind:              "heuristic",
			SentenceThreshold: 0.025,
			PoolSize:          1,
		},
		Output: Output{
			Indent:  4,
			Catalog: true,
		},
		Log: Log{
			Level: "info",
		},
		Paraphrase: Paraphrase{
			Provider:     "genai",
			BatchSize:    5,
			RetryDelay:   5 * time.Second,
			Timeout:      2 * time.Minute,
			Temperature:  0.7,
			MaxNewTokens: 128,
			Decoding:     "greedy",
		},
		TopV2: TopV2{
			Domains: []string{"navigation", "alarm", "event", "messaging", "music", "reminder", "timer", "weather"},
			Splits:  []string{"train", "eval", "test"},
		},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("opening config: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports configuration errors that would make a run fail late.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.SaveDir == "" {
		errs = append(errs, errors.New("save_dir is required"))
	}
	if len(c.Datasets) == 0 {
		errs = append(errs, errors.New("at least one dataset is required"))
	}
	if len(c.Splits) == 0 {
		errs = append(errs, errors.New("at least one split is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	switch c.Parser.Kind {
	case "heuristic":
	case "conllu":
		if c.Parser.CoNLLU == "" {
			errs = append(errs, errors.New("parser.conllu is required for the conllu parser"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown parser kind %q", c.Parser.Kind))
	}
	if (c.Parser.SentenceModel == "") != (c.Parser.SentenceTokenizer == "") {
		errs = append(errs, errors.New("parser.sentence_model and parser.sentence_tokenizer must be set together"))
	}
	if c.Segmenter.PrevMinWords < 0 || c.Segmenter.PieceMinWords < 0 {
		errs = append(errs, errors.New("merge thresholds must not be negative"))
	}
	return errors.Join(errs...)
}

// ValidateTopV2 reports configuration errors of the topv2 command.
func (c Config) ValidateTopV2() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.SaveDir == "" {
		errs = append(errs, errors.New("save_dir is required"))
	}
	if len(c.TopV2.Domains) == 0 {
		errs = append(errs, errors.New("at least one topv2 domain is required"))
	}
	if len(c.TopV2.Splits) == 0 {
		errs = append(errs, errors.New("at least one topv2 split is required"))
	}
	if c.TopV2.Parses == "" {
		errs = append(errs, errors.New("topv2.parses is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
