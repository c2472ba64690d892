package run

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mirrorsync/mirrorsync/cmd/util"
	"github.com/mirrorsync/mirrorsync/pkg/config"
	"github.com/mirrorsync/mirrorsync/pkg/errors"
	"github.com/mirrorsync/mirrorsync/pkg/fswatch"
	"github.com/mirrorsync/mirrorsync/pkg/logsink"
	"github.com/mirrorsync/mirrorsync/pkg/mirror"
)

// The interval to poll the filesystem for changes the watcher missed, e.g.
// files in directories created after the watch list was built.
const pollSeconds = 15

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	fs                        = afero.NewOsFs()
	clock                     = clockwork.NewRealClock()
	parseUserConfig           = config.ParseUser
	openLog                   = logsink.Open
)

type options struct {
	source      string
	destination string
	logDir      string
	console     bool
	watch       bool
}

// New creates a new `run` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mirror the source directory into the destination.",
		Long: "Make the destination directory exactly match the source:\n" +
			"stale destination entries are removed, and missing or changed\n" +
			"source entries are copied over. Paths not given as flags fall\n" +
			"back to the user config file.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "",
		"The root of the tree to mirror from.")
	cmd.Flags().StringVar(&opts.destination, "destination", "",
		"The root of the tree to make match the source.")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "",
		"The directory to write run logs into. Created if missing.")
	cmd.Flags().BoolVar(&opts.console, "console", false,
		"Echo per-item outcomes to the console in addition to the log file.")
	cmd.Flags().BoolVar(&opts.watch, "watch", false,
		"Keep running, re-mirroring whenever the source changes.")
	return cmd
}

// run resolves and validates the run options, wires the log sink, and drives
// the reconciliation.
func run(opts options) error {
	opts, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	if err := prepareRoots(opts); err != nil {
		return err
	}

	logger, logFile, logPath, err := openLog(clock, opts.logDir)
	if err != nil {
		return errors.WithContext(err, "open log file")
	}
	defer logFile.Close()

	if opts.console {
		logger.AddHook(logsink.NewConsoleHook(stdout))
	}

	logger.WithFields(logrus.Fields{
		"source":      opts.source,
		"destination": opts.destination,
		"log":         logPath,
	}).Info("Starting mirror run")

	if _, err := runOnce(logger, opts); err != nil {
		return err
	}

	if opts.watch {
		return watchLoop(logger, opts)
	}
	return nil
}

// resolveOptions fills unset flags from the user config and normalizes all
// three paths to absolute form. The engine only ever sees validated absolute
// roots.
func resolveOptions(opts options) (options, error) {
	if opts.source == "" || opts.destination == "" || opts.logDir == "" {
		userConfig, err := parseUserConfig()
		if err != nil {
			return options{}, err
		}

		if opts.source == "" {
			opts.source = userConfig.Source
		}
		if opts.destination == "" {
			opts.destination = userConfig.Destination
		}
		if opts.logDir == "" {
			opts.logDir = userConfig.LogDir
		}
		opts.console = opts.console || userConfig.Console
	}

	fields := map[string]*string{
		"source":      &opts.source,
		"destination": &opts.destination,
		"logDir":      &opts.logDir,
	}
	for name, field := range fields {
		if *field == "" {
			return options{}, errors.MissingFieldError{Field: name}
		}

		abs, err := filepath.Abs(*field)
		if err != nil {
			return options{}, errors.WithContext(err, "resolve "+name)
		}
		*field = abs
	}
	return opts, nil
}

// prepareRoots checks that the source exists and auto-creates the
// destination and log directories. Only the source has to pre-exist -- a
// missing destination just means everything gets copied.
func prepareRoots(opts options) error {
	fi, err := fs.Stat(opts.source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFriendlyError("The source directory %q doesn't exist.\n"+
				"Nothing to mirror.", opts.source)
		}
		return errors.WithContext(err, "stat source")
	}
	if !fi.IsDir() {
		return errors.NewFriendlyError("The source %q is not a directory.", opts.source)
	}

	if err := fs.MkdirAll(opts.destination, 0755); err != nil {
		return errors.WithContext(err, "create destination")
	}
	if err := fs.MkdirAll(opts.logDir, 0755); err != nil {
		return errors.WithContext(err, "create log directory")
	}
	return nil
}

// runOnce performs one full scan, diff, and apply cycle, and logs one
// structured outcome per operation plus the final summary.
func runOnce(logger *logrus.Logger, opts options) (mirror.Summary, error) {
	srcSnapshot, err := mirror.Scan(opts.source)
	if err != nil {
		return mirror.Summary{}, errors.WithContext(err, "scan source")
	}

	dstSnapshot, err := mirror.Scan(opts.destination)
	if err != nil {
		return mirror.Summary{}, errors.WithContext(err, "scan destination")
	}

	classification := srcSnapshot.Diff(dstSnapshot)
	if classification.Empty() {
		logger.Info("Destination already matches source. Nothing to do.")
		return mirror.Summary{}, nil
	}

	reconciler := mirror.Reconciler{
		Source:      opts.source,
		Destination: opts.destination,
	}
	records := reconciler.Apply(classification)
	for _, rec := range records {
		logRecord(logger, rec)
	}

	summary := mirror.Summarize(records)
	logger.WithFields(summary.Fields()).Infof("Run complete: %s", summary)
	return summary, nil
}

func logRecord(logger *logrus.Logger, rec mirror.OperationRecord) {
	entry := logger.WithFields(logrus.Fields{
		"op":   rec.Kind,
		"path": rec.Path,
	})
	if rec.Err != nil {
		entry.WithError(rec.Err).Warn("Operation failed")
		return
	}
	if rec.Kind == mirror.OpCopyFile {
		entry = entry.WithField("bytes", rec.Bytes)
	}
	entry.Info("Operation succeeded")
}

// watchLoop re-runs the mirror whenever the source tree changes, with a poll
// ticker as a fallback. Every cycle rebuilds both snapshots from scratch;
// there's no incremental state between cycles.
func watchLoop(logger *logrus.Logger, opts options) error {
	fileWatcher, err := fswatch.Watch(opts.source)
	if err != nil {
		if strings.Contains(errors.RootCause(err).Error(), "too many open files") {
			logger.Warnf("Too many files to watch for changes. "+
				"Falling back to polling every %d seconds.", pollSeconds)

			// Disable the file watcher channel.
			fileWatcher = nil
		} else {
			return errors.WithContext(err, "watch source")
		}
	}

	ticker := time.NewTicker(pollSeconds * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-fileWatcher:
		case <-ticker.C:
		}

		if _, err := runOnce(logger, opts); err != nil {
			return err
		}
	}
}
