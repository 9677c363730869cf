package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"cardvault/internal/capture"
	"cardvault/internal/logging"
	"cardvault/internal/naming"
	"cardvault/internal/runctx"
	"cardvault/internal/session"
	"cardvault/internal/transfer"
)

// Phase is one pass of the file stream applying Operation beneath BasePath.
type Phase struct {
	Title     string
	Operation transfer.Operation
	BasePath  string
}

// Options configures a Pipeline.
type Options struct {
	DayBreak  time.Duration
	Logger    *slog.Logger
	Observers []Observer
}

// Pipeline places camera files into archive trees.
type Pipeline struct {
	fs        afero.Fs
	resolver  *session.Resolver
	dayBreak  time.Duration
	logger    *slog.Logger
	observers []Observer
}

// New returns a pipeline whose directory and name decisions are made against
// fsys. The directory cache lives as long as the pipeline.
func New(fsys afero.Fs, opts Options) *Pipeline {
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	return &Pipeline{
		fs:        fsys,
		resolver:  session.NewResolver(fsys, opts.Logger),
		dayBreak:  opts.DayBreak,
		logger:    logger,
		observers: opts.Observers,
	}
}

// Run sorts files by capture time and executes phases in order. On a fatal
// error the reports gathered so far, including the interrupted phase, are
// returned with the error.
func (p *Pipeline) Run(ctx context.Context, files []capture.CameraFile, phases []Phase) ([]PhaseReport, error) {
	if err := validatePhases(phases); err != nil {
		return nil, err
	}
	ordered := slices.Clone(files)
	capture.SortByTimestamp(ordered)

	reports := make([]PhaseReport, 0, len(phases))
	for _, phase := range phases {
		report, err := p.runPhase(ctx, ordered, phase)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (p *Pipeline) runPhase(ctx context.Context, files []capture.CameraFile, phase Phase) (PhaseReport, error) {
	ctx = runctx.WithPhase(ctx, phase.Title)
	logger := logging.WithContext(ctx, p.logger)
	report := newPhaseReport(phase)
	tracker := session.NewTracker(p.resolver, p.dayBreak)
	var namerOpts []naming.Option
	if origins, ok := phase.Operation.(naming.Origins); ok {
		namerOpts = append(namerOpts, naming.WithOrigins(origins))
	}
	namer := naming.New(p.fs, namerOpts...)
	started := time.Now()

	logger.Info("phase started",
		logging.String("operation", report.Operation),
		logging.String("base_path", phase.BasePath),
		logging.Int("files", len(files)),
	)
	for _, o := range p.observers {
		o.PhaseStarted(phase.Title, len(files))
	}

	finish := func() PhaseReport {
		report.Elapsed = time.Since(started)
		for _, o := range p.observers {
			o.PhaseFinished(*report)
		}
		return *report
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		dir, err := tracker.Assign(phase.BasePath, file)
		if err != nil {
			return finish(), runctx.Wrap(runctx.ErrPrecondition, "pipeline", "resolve directory", phase.BasePath, err)
		}
		dst, present, err := namer.Resolve(file.Path, filepath.Join(dir, file.Name))
		if err != nil {
			return finish(), runctx.Wrap(runctx.ErrPrecondition, "pipeline", "resolve name", file.Path, err)
		}

		target := dst
		if present {
			target = ""
		}
		result, applyErr := phase.Operation.Apply(ctx, file.Path, target)
		report.claim(dir)
		if applyErr != nil && ctx.Err() != nil {
			return finish(), ctx.Err()
		}
		if applyErr != nil && !errors.Is(applyErr, runctx.ErrTransfer) {
			applyErr = runctx.Wrap(runctx.ErrTransfer, "pipeline", report.Operation, file.Path, applyErr)
		}

		outcome := Outcome{
			Phase:       phase.Title,
			Operation:   report.Operation,
			File:        file,
			Directory:   dir,
			Destination: dst,
			Present:     present,
			Result:      result,
			Err:         applyErr,
		}
		switch {
		case applyErr != nil:
			report.Failures = append(report.Failures, Failure{Path: file.Path, Destination: dst, Err: applyErr})
			logging.WarnWithContext(logger, "transfer failed", "transfer_failed",
				logging.String("source", file.Path),
				logging.String("destination", dst),
				logging.Error(applyErr),
				logging.String(logging.FieldErrorHint, "check the archive filesystem and rerun the import"),
				logging.String(logging.FieldImpact, "file was not archived; the card will not be unmounted"),
			)
		case present:
			report.AlreadyPresent++
			logger.Debug("already archived", logging.String("source", file.Path), logging.String("destination", dst))
		default:
			report.Transferred++
			report.Bytes += result.Bytes
			logger.Debug("transferred", logging.String("source", file.Path), logging.String("destination", dst))
		}
		for _, o := range p.observers {
			o.FileFinished(outcome)
		}
	}

	final := finish()
	logger.Info("phase complete",
		logging.Int("transferred", final.Transferred),
		logging.Int("already_present", final.AlreadyPresent),
		logging.Int("failed", len(final.Failures)),
		logging.Int("directories", len(final.Directories)),
		logging.Duration("elapsed", final.Elapsed),
	)
	return final, nil
}

func validatePhases(phases []Phase) error {
	for i, phase := range phases {
		if phase.Operation == nil {
			return runctx.Wrap(runctx.ErrConfiguration, "pipeline", "validate phases", fmt.Sprintf("phase %d has no operation", i+1), nil)
		}
		if strings.TrimSpace(phase.BasePath) == "" {
			return runctx.Wrap(runctx.ErrConfiguration, "pipeline", "validate phases", fmt.Sprintf("phase %d has no base path", i+1), nil)
		}
	}
	return nil
}
