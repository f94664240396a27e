package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/cli/render"
	"github.com/pithecene-io/chunkyard/cli/tui"
	"github.com/pithecene-io/chunkyard/iox"
	"github.com/pithecene-io/chunkyard/log"
	"github.com/pithecene-io/chunkyard/metrics"
	"github.com/pithecene-io/chunkyard/upload"
)

// defaultPrincipal is used when neither config nor flags name one.
const defaultPrincipal = "local"

// IngestCommand returns the ingest command: frame stream in, objects out.
func IngestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Reassemble a chunk frame stream and store the finished objects",
		Flags: withFlags(ReadOnlyFlags(), []cli.Flag{ConfigFlag, InputFlag}, StorageFlags(), SessionFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "Stop at the first failed upload",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress structured logs on stderr",
			},
		}),
		Action: func(c *cli.Context) error {
			return runEngine(c, false)
		},
	}
}

// InspectCommand returns the inspect command: a dry-run ingest that
// reports per-upload completeness without persisting anything.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Dry-run a chunk frame stream and report upload status and gaps",
		Flags: withFlags(ReadOnlyFlags(), []cli.Flag{ConfigFlag, InputFlag}, SessionFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Emit structured logs on stderr",
			},
		}),
		Action: func(c *cli.Context) error {
			return runEngine(c, true)
		},
	}
}

func runEngine(c *cli.Context, dryRun bool) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitUploadError)
	}
	limits, err := sessionLimits(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitUploadError)
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	var (
		store   blob.Store = blob.NewMemoryStore()
		backend            = "memory"
	)
	if !dryRun {
		backend = resolveBackend(cfg.Storage)
		if backend == "memory" {
			fmt.Fprintln(c.App.ErrWriter, "Warning: no storage configured; objects are kept in memory and discarded at exit")
		}
		store, backend, err = buildStore(ctx, cfg.Storage)
		if err != nil {
			return cli.Exit(fmt.Sprintf("storage: %v", err), exitStorageError)
		}
	}
	defer iox.DiscardClose(store)

	logger := log.NewNopLogger()
	if (!dryRun && !c.Bool("quiet")) || (dryRun && c.Bool("verbose")) {
		logger = log.NewLogger("ingest")
	}
	defer func() { _ = logger.Sync() }()

	authorizer, err := buildAuthorizer(cfg.Auth)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitUploadError)
	}

	collector := metrics.NewCollector(backend, cfg.Adapter.Type)
	opts := upload.Options{
		Store:          blob.NewInstrumentedStore(store, collector),
		Authorizer:     authorizer,
		Logger:         logger,
		Collector:      collector,
		Limits:         limits,
		StorageBackend: backend,
	}
	if !dryRun {
		ad, err := buildAdapter(cfg.Adapter)
		if err != nil {
			return cli.Exit(fmt.Sprintf("adapter: %v", err), exitUploadError)
		}
		if ad != nil {
			defer iox.DiscardClose(ad)
			opts.Adapter = ad
		}
	}

	svc, err := upload.NewService(opts)
	if err != nil {
		return cli.Exit(err.Error(), exitUploadError)
	}

	principal := cfg.Principal
	if principal == "" {
		principal = defaultPrincipal
	}
	engine := upload.NewEngine(svc, upload.EngineOptions{
		Principal:   principal,
		DryRun:      dryRun,
		IdleTimeout: cfg.Limits.IdleTimeout.Duration,
		FailFast:    c.Bool("fail-fast"),
	})

	in, err := iox.OpenInput(c.String("input"))
	if err != nil {
		return cli.Exit(err.Error(), exitStreamError)
	}
	defer iox.DiscardClose(in)

	report, runErr := engine.Run(ctx, in)

	if c.Bool("tui") {
		if err := r.RenderTUI(tui.ViewReport, report); err != nil {
			return err
		}
	} else {
		if err := r.Render(report); err != nil {
			return err
		}
		r.Summary(summarize(report), runErr == nil)
	}

	return exitErr(runErr)
}

// summarize renders "N uploads: a finalized, b failed" in a fixed state
// order.
func summarize(report *upload.Report) string {
	counts := report.Counts()
	var parts []string
	for _, s := range []upload.UploadState{
		upload.StateFinalized,
		upload.StateReady,
		upload.StateIncomplete,
		upload.StateOpen,
		upload.StateAborted,
		upload.StateExpired,
		upload.StateFailed,
	} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	line := fmt.Sprintf("%d uploads, %d frames", len(report.Uploads), report.Frames)
	if len(parts) > 0 {
		line += ": " + strings.Join(parts, ", ")
	}
	return line
}
