package covsim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigEnv names the environment variable pointing to the directory holding conf.toml.
	ConfigEnv      = "COVSIM_CONFIG"
	dateTimeFormat = "2006-01-02 15:04:05"
)

// Config gathers everything needed to build a simulation context.
type Config struct {
	Body          CelestialObject
	Settings      Settings
	NumSatellites int
	Inclination   float64 // deg
	Annealing     AnnealingConfig
	RasterWidth   int
	RasterHeight  int
	WrapSeam      bool
	EvaluatorStep float64 // s
	TailLength    int
	Seed          int64
	Epoch         time.Time // zero means the surface starts unrotated
	OutputDir     string
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Body:          Earth,
		Settings:      DefaultSettings(),
		NumSatellites: 3,
		Inclination:   45,
		Annealing:     DefaultAnnealingConfig(),
		RasterWidth:   DefaultRasterWidth,
		RasterHeight:  DefaultRasterHeight,
		EvaluatorStep: DefaultEvaluatorStep,
		TailLength:    DefaultTailLength,
		Seed:          1,
		OutputDir:     ".",
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("general.body", d.Body.Name)
	v.SetDefault("general.seed", d.Seed)
	v.SetDefault("general.output_path", d.OutputDir)
	v.SetDefault("general.epoch", "")
	v.SetDefault("constellation.satellites", d.NumSatellites)
	v.SetDefault("constellation.inclination", d.Inclination)
	v.SetDefault("constellation.altitude", d.Settings.Altitude)
	v.SetDefault("constellation.min_elevation", d.Settings.MinElevation)
	v.SetDefault("constellation.target_coverage", d.Settings.TargetCoverage)
	v.SetDefault("constellation.max_latitude", d.Settings.MaxLatitude)
	v.SetDefault("constellation.allow_retrograde", d.Settings.AllowRetrograde)
	v.SetDefault("simulation.speed", d.Settings.Speed)
	v.SetDefault("simulation.trace", d.Settings.ShowTrace)
	v.SetDefault("simulation.tail_length", d.TailLength)
	v.SetDefault("raster.width", d.RasterWidth)
	v.SetDefault("raster.height", d.RasterHeight)
	v.SetDefault("raster.wrap_seam", d.WrapSeam)
	v.SetDefault("evaluator.step", d.EvaluatorStep)
	v.SetDefault("annealing.initial_temperature", d.Annealing.InitialTemperature)
	v.SetDefault("annealing.cooling_rate", d.Annealing.CoolingRate)
	v.SetDefault("annealing.min_temperature", d.Annealing.MinTemperature)
	v.SetDefault("annealing.max_iterations", d.Annealing.MaxIterations)
}

// LoadConfig reads a scenario file (TOML, YAML or JSON, based on its extension). Missing keys
// keep their default value.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("could not read %s: %w", path, err)
	}
	return configFrom(v)
}

// ConfigFromEnv loads conf.toml from the directory named by COVSIM_CONFIG, or returns the
// defaults when the variable is unset.
func ConfigFromEnv() (Config, error) {
	confPath := os.Getenv(ConfigEnv)
	if confPath == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(filepath.Join(confPath, "conf.toml"))
}

func configFrom(v *viper.Viper) (Config, error) {
	body, err := CelestialObjectFromString(v.GetString("general.body"))
	if err != nil {
		return Config{}, err
	}
	conf := Config{
		Body:          body,
		NumSatellites: v.GetInt("constellation.satellites"),
		Inclination:   v.GetFloat64("constellation.inclination"),
		Settings: Settings{
			Altitude:        v.GetFloat64("constellation.altitude"),
			Speed:           v.GetFloat64("simulation.speed"),
			MinElevation:    v.GetFloat64("constellation.min_elevation"),
			TargetCoverage:  v.GetFloat64("constellation.target_coverage"),
			MaxLatitude:     v.GetFloat64("constellation.max_latitude"),
			AllowRetrograde: v.GetBool("constellation.allow_retrograde"),
			ShowCoverage:    true,
			ShowTrace:       v.GetBool("simulation.trace"),
			ShowTracks:      true,
		}.Clamp(),
		Annealing: AnnealingConfig{
			InitialTemperature: v.GetFloat64("annealing.initial_temperature"),
			CoolingRate:        v.GetFloat64("annealing.cooling_rate"),
			MinTemperature:     v.GetFloat64("annealing.min_temperature"),
			MaxIterations:      v.GetInt("annealing.max_iterations"),
		},
		RasterWidth:   v.GetInt("raster.width"),
		RasterHeight:  v.GetInt("raster.height"),
		WrapSeam:      v.GetBool("raster.wrap_seam"),
		EvaluatorStep: v.GetFloat64("evaluator.step"),
		TailLength:    v.GetInt("simulation.tail_length"),
		Seed:          v.GetInt64("general.seed"),
		OutputDir:     v.GetString("general.output_path"),
	}
	if epoch := strings.TrimSpace(v.GetString("general.epoch")); epoch != "" {
		if conf.Epoch, err = time.Parse(dateTimeFormat, epoch); err != nil {
			return Config{}, fmt.Errorf("could not understand `general.epoch`: %w", err)
		}
	}
	if conf.NumSatellites < MinSatellites || conf.NumSatellites > MaxSatellites {
		return Config{}, fmt.Errorf("`constellation.satellites` must be within [%d, %d], got %d", MinSatellites, MaxSatellites, conf.NumSatellites)
	}
	if conf.RasterWidth <= 0 || conf.RasterHeight <= 0 {
		return Config{}, fmt.Errorf("raster must have a positive size, got %dx%d", conf.RasterWidth, conf.RasterHeight)
	}
	if conf.EvaluatorStep <= 0 {
		return Config{}, fmt.Errorf("`evaluator.step` must be positive, got %f", conf.EvaluatorStep)
	}
	return conf, nil
}
