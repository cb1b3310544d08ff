package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkholodov/obsync/internal/config"
	"github.com/mkholodov/obsync/internal/engine"
	"github.com/mkholodov/obsync/internal/fingerprint"
	"github.com/mkholodov/obsync/internal/host"
	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	localDir := flag.String("local", "", "path to the local vault directory")
	remoteDir := flag.String("remote", "", "path to the remote replica directory")
	once := flag.Bool("once", false, "run a single reconciliation pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger("obsync")
	if cfg.App.LogPath != "" {
		log = logger.NewFileLogger("obsync", cfg.App.LogPath)
	}

	if *localDir == "" || *remoteDir == "" {
		log.Fatal().Msg("both -local and -remote directories are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	versions, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open version store")
	}
	defer versions.Close()

	fpEngine := fingerprint.New(cfg.Sync.MaxDocumentBytes)
	local, err := host.NewDirReplica(*localDir, fpEngine)
	if err != nil {
		log.Fatal().Err(err).Msg("open local replica")
	}
	remote, err := host.NewDirReplica(*remoteDir, fpEngine)
	if err != nil {
		log.Fatal().Err(err).Msg("open remote replica")
	}

	eng := engine.New(cfg, versions, local, log)

	if *once {
		runOnce(ctx, eng, local, remote, log)
		return
	}

	job := engine.NewJob(eng, local.List, remote.List, remote, log)
	job.Start(ctx, time.Duration(cfg.Sync.Interval))
	log.Info().Dur("interval", time.Duration(cfg.Sync.Interval)).Msg("background sync started")

	<-ctx.Done()
	job.Stop()
	log.Info().Msg("shut down")
}

func runOnce(ctx context.Context, eng *engine.Engine, local, remote *host.DirReplica, log *logger.Logger) {
	localListing, err := local.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list local replica")
	}
	remoteListing, err := remote.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list remote replica")
	}

	summary, err := eng.BeginSync(ctx, localListing, remoteListing, remote)
	if err != nil {
		log.Fatal().Err(err).Msg("sync pass failed")
	}

	fmt.Printf("scanned %d: %d unchanged, %d fast-forwarded, %d merged, %d unresolved, %d deleted, %d failed\n",
		summary.Scanned, summary.Unchanged, summary.FastForwarded,
		summary.Merged, summary.Unresolved, summary.Deleted, summary.Failed)
	for _, id := range summary.UnresolvedIDs {
		fmt.Printf("conflict: %s\n", id)
	}
}

func printBuildInfo() {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	fmt.Printf("Build version: %s\n", orNA(buildVersion))
	fmt.Printf("Build date: %s\n", orNA(buildDate))
	fmt.Printf("Build commit: %s\n", orNA(buildCommit))
}
