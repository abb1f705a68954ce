package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ChristopherRabotin/covsim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scenario    string
	designFile  string
	saveFile    string
	historyFile string
	geojsonFile string
	metricsAddr string
	ticks       int
	optimize    bool
	seed        int64
)

func init() {
	flag.StringVar(&scenario, "scenario", "", "scenario TOML file (defaults to $"+covsim.ConfigEnv+"/conf.toml)")
	flag.StringVar(&designFile, "design", "", "JSON design to load before running")
	flag.StringVar(&saveFile, "save", "", "write the final design as JSON to this file")
	flag.StringVar(&historyFile, "history", "", "write the optimizer history as CSV to this file")
	flag.StringVar(&geojsonFile, "geojson", "", "write the final footprints and tracks as GeoJSON to this file")
	flag.StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.IntVar(&ticks, "ticks", 1000, "number of live simulation ticks")
	flag.BoolVar(&optimize, "optimize", false, "search for a better design by simulated annealing")
	flag.Int64Var(&seed, "seed", 0, "random seed (overrides the configuration when non zero)")
}

func main() {
	flag.Parse()
	logger := covsim.NewLogger(os.Stdout)

	var conf covsim.Config
	var err error
	if scenario != "" {
		conf, err = covsim.LoadConfig(scenario)
	} else {
		conf, err = covsim.ConfigFromEnv()
	}
	if err != nil {
		log.Fatalf("[error] %s", err)
	}
	if seed != 0 {
		conf.Seed = seed
	}

	var metrics *covsim.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = covsim.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log("level", "error", "subsys", "http", "err", err)
			}
		}()
	}

	sim := covsim.NewSimulator(conf, logger, metrics)
	settings := sim.Settings()
	if designFile != "" {
		f, err := os.Open(designFile)
		if err != nil {
			log.Fatalf("[error] %s", err)
		}
		settings, err = sim.Load(f)
		f.Close()
		if err != nil {
			log.Fatalf("[error] %s: %s", designFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if optimize {
		annealer, err := sim.Optimize(ctx, conf.Annealing.Clamp())
		if err != nil {
			log.Fatalf("[error] optimization: %s", err)
		}
		logger.Log("level", "notice", "progress", annealer.Progress(), "best", covsim.FormatCost(annealer.BestCost()))
		if historyFile != "" {
			writeFile(conf.OutputDir, historyFile, func(w io.Writer) error {
				return covsim.WriteHistory(w, annealer.History())
			})
		}
	}

	for i := 0; i < ticks && ctx.Err() == nil; i++ {
		sim.Tick(settings)
	}
	snap := sim.Snapshot()
	logger.Log("level", "notice", "t", snap.Time, "coverage(%)", snap.Coverage, "time to target", snap.TimeToTarget)
	for i, sat := range snap.Satellites {
		logger.Log("level", "info", "sat", i+1, "lat", sat.Lat, "lon", sat.Lon, "precession", sat.PrecessionAngle)
	}

	if saveFile != "" {
		writeFile(conf.OutputDir, saveFile, sim.Save)
	}
	if geojsonFile != "" {
		writeFile(conf.OutputDir, geojsonFile, sim.WriteGeoJSON)
	}
}

// writeFile creates name, relative to dir unless absolute, and fills it with write.
func writeFile(dir, name string, write func(io.Writer) error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	f, err := os.Create(name)
	if err != nil {
		log.Fatalf("[error] %s", err)
	}
	if err := write(f); err != nil {
		f.Close()
		log.Fatalf("[error] %s: %s", name, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("[error] %s: %s", name, err)
	}
	log.Printf("[info] saved %s", name)
}
