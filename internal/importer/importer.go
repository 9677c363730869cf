package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"cardvault/internal/capture"
	"cardvault/internal/config"
	"cardvault/internal/ledger"
	"cardvault/internal/logging"
	"cardvault/internal/media"
	"cardvault/internal/pipeline"
	"cardvault/internal/preflight"
	"cardvault/internal/probe"
	"cardvault/internal/runctx"
	"cardvault/internal/transfer"
)

const (
	PrimaryPhaseTitle = "Copy to primary archive"
	BackupPhaseTitle  = "Move to backup archive"
)

// ErrNothingToImport marks runs that found no cards or no camera files.
var ErrNothingToImport = errors.New("nothing to import")

// Unmounter releases a mounted card.
type Unmounter interface {
	Unmount(ctx context.Context, path string) error
}

// Options selects per-invocation behavior.
type Options struct {
	Mock bool
	// Plan receives mock plan lines when transfer.mock_plan_file is unset.
	Plan      io.Writer
	Observers []pipeline.Observer
}

// Importer runs imports for one configuration.
type Importer struct {
	cfg       *config.Config
	logger    *slog.Logger
	fs        afero.Fs
	prober    capture.Prober
	unmounter Unmounter
	now       func() time.Time
}

// Option customizes an Importer.
type Option func(*Importer)

// WithFs replaces the OS filesystem used for discovery and transfers.
func WithFs(fsys afero.Fs) Option {
	return func(im *Importer) { im.fs = fsys }
}

// WithProber replaces the configured capture-date prober.
func WithProber(p capture.Prober) Option {
	return func(im *Importer) { im.prober = p }
}

// WithUnmounter replaces the umount-based card release.
func WithUnmounter(u Unmounter) Option {
	return func(im *Importer) { im.unmounter = u }
}

// WithClock replaces time.Now for the run start.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// New returns an Importer for cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Importer {
	im := &Importer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "import"),
		fs:     afero.NewOsFs(),
		prober: probe.FromConfig(cfg),
		unmounter: transfer.Unmounter{
			Binary: cfg.Media.UnmountBinary,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run performs one import. The summary is returned whenever discovery got
// far enough to produce one, including alongside errors. Transfer failures
// yield an ErrTransfer error after every phase has run.
func (im *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	runStart := im.now()
	if err := im.cfg.EnsureDirectories(); err != nil {
		return nil, runctx.Wrap(runctx.ErrConfiguration, "import", "ensure directories", "", err)
	}
	lock := flock.New(im.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, runctx.Wrap(runctx.ErrPrecondition, "import", "acquire lock", im.cfg.LockPath(), err)
	}
	if !ok {
		return nil, runctx.Wrap(runctx.ErrPrecondition, "import", "acquire lock", "another cardvault import is already running", nil)
	}
	defer func() { _ = lock.Unlock() }()

	summary := &Summary{Mock: opts.Mock}

	cards, err := media.Discover(im.fs, im.cfg.Media.MountRoot, im.cfg.Media.User)
	if err != nil {
		return nil, runctx.Wrap(runctx.ErrPrecondition, "import", "discover cards", im.cfg.Media.MountRoot, err)
	}
	summary.Cards = cards
	if len(cards) == 0 {
		return summary, runctx.Wrap(runctx.ErrPrecondition, "import", "discover cards",
			fmt.Sprintf("no cards with a DCIM directory under %s", im.mountDir()), ErrNothingToImport)
	}
	paths := media.AllFiles(cards)
	summary.Files = len(paths)
	if len(paths) == 0 {
		return summary, runctx.Wrap(runctx.ErrPrecondition, "import", "discover files", "cards contain no camera files", ErrNothingToImport)
	}
	summary.Bytes = im.totalSize(paths)

	summary.Preflight = preflight.RunAll(im.cfg, preflight.Options{ImportBytes: summary.Bytes, ReadOnly: opts.Mock})
	im.logAdvisories(summary.Preflight)
	if err := preflight.Err(summary.Preflight); err != nil {
		return summary, err
	}

	store, run := im.beginLedger(ctx, opts.Mock, len(cards), len(paths))
	if store != nil {
		defer store.Close()
	}
	summary.RunID = uuid.NewString()
	if run != nil {
		summary.RunID = run.ID
	}
	ctx = runctx.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, im.logger)
	logger.Info("import started",
		logging.String(logging.FieldEventType, "import_started"),
		logging.Bool("mock", opts.Mock),
		logging.Int("cards", len(cards)),
		logging.Int("files", len(paths)),
		logging.Int64("bytes", summary.Bytes),
	)

	runErr := im.transfer(ctx, runStart, paths, opts, summary, store, run)
	switch {
	case runErr != nil && runctx.IsFatal(runErr):
		im.finishLedger(ctx, store, run, ledger.RunAborted, runErr)
		return summary, runErr
	case runErr != nil:
		im.finishLedger(ctx, store, run, ledger.RunFailed, runErr)
		logging.WarnWithContext(logger, "import finished with failures", "import_failed",
			logging.Int("failed", summary.FailureCount()),
			logging.String(logging.FieldImpact, "cards were left mounted"),
			logging.String(logging.FieldErrorHint, "fix the reported errors and rerun the import; archived files are detected and skipped"),
		)
		return summary, runErr
	}
	im.finishLedger(ctx, store, run, ledger.RunCompleted, nil)

	if !opts.Mock && im.cfg.Media.Unmount {
		im.releaseCards(ctx, summary)
	}
	logger.Info("import complete",
		logging.String(logging.FieldEventType, "import_complete"),
		logging.Int("transferred", summary.Transferred()),
		logging.Duration("elapsed", time.Since(runStart)),
	)
	return summary, nil
}

func (im *Importer) transfer(ctx context.Context, runStart time.Time, paths []string, opts Options, summary *Summary, store *ledger.Store, run *ledger.Run) error {
	resolver := capture.NewResolver(runStart, im.prober, im.logger)
	files, err := resolver.Load(ctx, paths)
	if err != nil {
		return err
	}

	observers := append([]pipeline.Observer(nil), opts.Observers...)
	if store != nil && run != nil {
		observers = append(observers, ledger.NewRecorder(ctx, store, run.ID, im.logger))
	}

	phases, archiveFs, closePlan, err := im.phases(opts)
	if err != nil {
		return err
	}
	defer closePlan()

	p := pipeline.New(archiveFs, pipeline.Options{
		DayBreak:  im.cfg.DayBreak(),
		Logger:    im.logger,
		Observers: observers,
	})
	reports, err := p.Run(ctx, files, phases)
	summary.Reports = reports
	if err != nil {
		return err
	}
	if n := summary.FailureCount(); n > 0 {
		return runctx.Wrap(runctx.ErrTransfer, "import", "transfer",
			fmt.Sprintf("%d transfer(s) failed; cards were left mounted", n), nil)
	}
	return nil
}

func (im *Importer) phases(opts Options) ([]pipeline.Phase, afero.Fs, func(), error) {
	specs := []struct {
		title string
		kind  transfer.Kind
		base  string
	}{
		{PrimaryPhaseTitle, transfer.KindCopy, im.cfg.Archive.PrimaryDir},
		{BackupPhaseTitle, transfer.KindMove, im.cfg.Archive.BackupDir},
	}

	archiveFs, plan, closePlan := im.fs, opts.Plan, func() {}
	if opts.Mock {
		if path := im.cfg.Transfer.MockPlanFile; path != "" {
			f, err := os.Create(path)
			if err != nil {
				return nil, nil, nil, runctx.Wrap(runctx.ErrConfiguration, "import", "open mock plan", path, err)
			}
			plan = f
			closePlan = func() { _ = f.Close() }
		}
		archiveFs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(im.fs), afero.NewMemMapFs())
	}

	phases := make([]pipeline.Phase, 0, len(specs))
	for _, spec := range specs {
		op, err := transfer.New(spec.kind, archiveFs, opts.Mock, plan)
		if err != nil {
			closePlan()
			return nil, nil, nil, runctx.Wrap(runctx.ErrConfiguration, "import", "build phase", spec.title, err)
		}
		phases = append(phases, pipeline.Phase{Title: spec.title, Operation: op, BasePath: spec.base})
	}
	return phases, archiveFs, closePlan, nil
}

func (im *Importer) releaseCards(ctx context.Context, summary *Summary) {
	logger := logging.WithContext(ctx, im.logger)
	for _, card := range summary.Cards {
		if err := im.unmounter.Unmount(ctx, card.Root); err != nil {
			summary.UnmountFailures = append(summary.UnmountFailures, UnmountFailure{Path: card.Root, Err: err})
			logging.WarnWithContext(logger, "unmount failed", "unmount_failed",
				logging.String("card", card.Root),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "close any program using the card and eject it manually"),
			)
			continue
		}
		summary.Unmounted = append(summary.Unmounted, card.Root)
		logger.Info("card unmounted", logging.String("card", card.Root))
	}
}

func (im *Importer) beginLedger(ctx context.Context, mock bool, cards, files int) (*ledger.Store, *ledger.Run) {
	if !im.cfg.Ledger.Enabled {
		return nil, nil
	}
	store, err := ledger.Open(im.cfg)
	if err != nil {
		im.warnLedger(err)
		return nil, nil
	}
	run, err := store.BeginRun(ctx, ledger.RunInfo{Mock: mock, Cards: cards, Files: files})
	if err != nil {
		im.warnLedger(err)
		_ = store.Close()
		return nil, nil
	}
	return store, run
}

func (im *Importer) finishLedger(ctx context.Context, store *ledger.Store, run *ledger.Run, status ledger.RunStatus, runErr error) {
	if store == nil || run == nil {
		return
	}
	// The run must be closed even when ctx was cancelled.
	if err := store.FinishRun(context.WithoutCancel(ctx), run.ID, status, runErr); err != nil {
		im.warnLedger(err)
	}
}

func (im *Importer) warnLedger(err error) {
	logging.WarnWithContext(im.logger, "import ledger unavailable", "ledger_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "this import will be missing from cardvault history"),
	)
}

func (im *Importer) logAdvisories(results []preflight.Result) {
	for _, r := range results {
		if r.Advisory && !r.Passed {
			logging.WarnWithContext(im.logger, "preflight advisory", "preflight_advisory",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
		}
	}
}

func (im *Importer) totalSize(paths []string) int64 {
	var total int64
	for _, path := range paths {
		if info, err := im.fs.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

func (im *Importer) mountDir() string {
	return filepath.Join(im.cfg.Media.MountRoot, im.cfg.Media.User)
}
