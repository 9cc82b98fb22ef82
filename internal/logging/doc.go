// Package logging provides structured logging for pipeline runs.
//
// Records are JSON lines written by log/slog to <repo>/.ai/logs/<date>/aidocgen.log,
// with an optional plain-text mirror of warnings and errors on the console.
// Child loggers carry run, analyzer and phase attributes so a single run can
// be reconstructed with [ReadDir] and [Filter].
//
//	logger, err := logging.New(logging.Options{
//	    Dir:     logging.DailyDir(filepath.Join(root, ".ai", "logs"), time.Now()),
//	    Level:   logging.LevelInfo,
//	    Console: os.Stderr,
//	})
//	defer logger.Close()
//
//	runLog := logger.WithRun(report.RunID).WithPhase("execute")
//	runLog.Info("task finished", "analyzer", "structure", "duration_ms", 1200)
package logging
