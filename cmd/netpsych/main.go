package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/netpsych/netpsych/pkg/logging"
	"github.com/netpsych/netpsych/pkg/pipeline"
	"github.com/netpsych/netpsych/pkg/report"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (flags override it)")
	dataPath := flag.String("data", "", "CSV path or s3:// URL")
	outDir := flag.String("out", "", "Report output directory")
	estimator := flag.String("estimator", "", "Network estimator: cor or pcor")
	alpha := flag.Float64("alpha", 0, "Significance level for edge pruning")
	noPrune := flag.Bool("no-prune", false, "Keep non-significant edges in the model")
	threshold := flag.Float64("threshold", 0, "Hide edges below |weight| in plots only")
	resamples := flag.Int("resamples", 0, "Bootstrap resamples")
	workers := flag.Int("workers", 0, "Bootstrap worker count (0 = all CPUs)")
	seed := flag.Uint64("seed", 0, "Bootstrap seed")
	noBootstrap := flag.Bool("no-bootstrap", false, "Skip edge-weight bootstrapping")
	cachePath := flag.String("cache", "", "Save raw bootstrap draws to this file")
	quiet := flag.Bool("quiet", false, "Suppress the terminal summary")
	flag.Parse()

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("❌ Config error: %v", err)
		}
		cfg = loaded
	}

	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *estimator != "" {
		cfg.Network.Estimator = *estimator
	}
	if *alpha != 0 {
		cfg.Network.Alpha = *alpha
	}
	if *noPrune {
		cfg.Network.Prune = false
	}
	if *threshold != 0 {
		cfg.Network.Threshold = *threshold
	}
	if *noBootstrap {
		cfg.Bootstrap.Enabled = false
	}
	if *resamples != 0 {
		cfg.Bootstrap.Resamples = *resamples
	}
	if *workers != 0 {
		cfg.Bootstrap.Workers = *workers
	}
	if *seed != 0 {
		cfg.Bootstrap.Seed = *seed
	}
	if *cachePath != "" {
		cfg.Bootstrap.Cache = *cachePath
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("🧠 netpsych analyzing %s", cfg.Data.Path)
	analysis, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Analysis failed: %v", err)
	}

	if !*quiet {
		fmt.Print(report.Summary(analysis))
	}
	log.Printf("✅ Report written to %s", cfg.Output.Dir)
}
