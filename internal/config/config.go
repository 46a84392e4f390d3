package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Orientation OrientationConfig
	Strips      StripsConfig
	Pipeline    PipelineConfig
	Export      ExportConfig
	Log         LogConfig
}

// OrientationConfig holds orientation detection and deskew settings.
type OrientationConfig struct {
	MaxSkewAngle  float64 `mapstructure:"max_skew_angle"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	EnableDeskew  bool    `mapstructure:"enable_deskew"`
}

// StripsConfig holds repetitive header/footer detection settings.
type StripsConfig struct {
	HeaderStripHeight   float64 `mapstructure:"header_strip_height"`
	FooterStripHeight   float64 `mapstructure:"footer_strip_height"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	BaseConfidence      float64 `mapstructure:"base_confidence"`
	MaxConfidenceBoost  float64 `mapstructure:"max_confidence_boost"`
	IoUThreshold        float64 `mapstructure:"iou_threshold"`
}

// PipelineConfig holds document pipeline settings.
type PipelineConfig struct {
	Concurrency         int    `mapstructure:"concurrency"`
	OutputDir           string `mapstructure:"output_dir"`
	ContinueOnPageError bool   `mapstructure:"continue_on_page_error"`
}

// ExportConfig holds review export settings.
type ExportConfig struct {
	CSVPath  string `mapstructure:"csv_path"`
	XLSXPath string `mapstructure:"xlsx_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the BILLNORM_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Orientation defaults
	v.SetDefault("orientation.max_skew_angle", 10.0)
	v.SetDefault("orientation.min_confidence", 0.6)
	v.SetDefault("orientation.enable_deskew", true)

	// Strip detection defaults
	v.SetDefault("strips.header_strip_height", 0.08)
	v.SetDefault("strips.footer_strip_height", 0.08)
	v.SetDefault("strips.similarity_threshold", 0.85)
	v.SetDefault("strips.base_confidence", 0.65)
	v.SetDefault("strips.max_confidence_boost", 0.25)
	v.SetDefault("strips.iou_threshold", 0.7)

	// Pipeline defaults
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.output_dir", "corrected")
	v.SetDefault("pipeline.continue_on_page_error", false)

	// Export defaults
	v.SetDefault("export.csv_path", "")
	v.SetDefault("export.xlsx_path", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"orientation.max_skew_angle":      "BILLNORM_ORIENTATION_MAX_SKEW_ANGLE",
		"orientation.min_confidence":      "BILLNORM_ORIENTATION_MIN_CONFIDENCE",
		"orientation.enable_deskew":       "BILLNORM_ORIENTATION_ENABLE_DESKEW",
		"strips.header_strip_height":      "BILLNORM_STRIPS_HEADER_STRIP_HEIGHT",
		"strips.footer_strip_height":      "BILLNORM_STRIPS_FOOTER_STRIP_HEIGHT",
		"strips.similarity_threshold":     "BILLNORM_STRIPS_SIMILARITY_THRESHOLD",
		"strips.base_confidence":          "BILLNORM_STRIPS_BASE_CONFIDENCE",
		"strips.max_confidence_boost":     "BILLNORM_STRIPS_MAX_CONFIDENCE_BOOST",
		"strips.iou_threshold":            "BILLNORM_STRIPS_IOU_THRESHOLD",
		"pipeline.concurrency":            "BILLNORM_PIPELINE_CONCURRENCY",
		"pipeline.output_dir":             "BILLNORM_PIPELINE_OUTPUT_DIR",
		"pipeline.continue_on_page_error": "BILLNORM_PIPELINE_CONTINUE_ON_PAGE_ERROR",
		"export.csv_path":                 "BILLNORM_EXPORT_CSV_PATH",
		"export.xlsx_path":                "BILLNORM_EXPORT_XLSX_PATH",
		"log.level":                       "BILLNORM_LOG_LEVEL",
		"log.format":                      "BILLNORM_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.Orientation = OrientationConfig{
		MaxSkewAngle:  v.GetFloat64("orientation.max_skew_angle"),
		MinConfidence: v.GetFloat64("orientation.min_confidence"),
		EnableDeskew:  v.GetBool("orientation.enable_deskew"),
	}
	cfg.Strips = StripsConfig{
		HeaderStripHeight:   v.GetFloat64("strips.header_strip_height"),
		FooterStripHeight:   v.GetFloat64("strips.footer_strip_height"),
		SimilarityThreshold: v.GetFloat64("strips.similarity_threshold"),
		BaseConfidence:      v.GetFloat64("strips.base_confidence"),
		MaxConfidenceBoost:  v.GetFloat64("strips.max_confidence_boost"),
		IoUThreshold:        v.GetFloat64("strips.iou_threshold"),
	}
	cfg.Pipeline = PipelineConfig{
		Concurrency:         v.GetInt("pipeline.concurrency"),
		OutputDir:           v.GetString("pipeline.output_dir"),
		ContinueOnPageError: v.GetBool("pipeline.continue_on_page_error"),
	}
	cfg.Export = ExportConfig{
		CSVPath:  v.GetString("export.csv_path"),
		XLSXPath: v.GetString("export.xlsx_path"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
