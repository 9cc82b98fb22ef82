package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/analyzer"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact/blob"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/generator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/llm"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/orchestrator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/progress"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
)

// flagKeys maps command flags onto the config keys they override.
// A bound flag only wins when it was set on the command line.
var flagKeys = map[string]string{}

// settings is the configuration resolved for one command invocation.
type settings struct {
	root  string
	v     *viper.Viper
	cfg   *config.Config
	files []string
}

// loadSettings layers defaults, config files, environment, bound flags and
// --set overrides, in increasing precedence.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(root); err != nil {
		return nil, err
	}

	v, err := config.New()
	if err != nil {
		return nil, err
	}
	files, err := config.ReadFiles(v, root, cfgFile)
	if err != nil {
		return nil, err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, bindErr
	}

	if err := config.ApplyOverrides(v, setPairs); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return &settings{root: root, v: v, cfg: cfg, files: files}, nil
}

// app holds the pipeline components shared by the commands.
type app struct {
	*settings

	fs      afero.Fs
	logger  *logging.Logger
	bus     *event.Bus
	store   *artifact.Store
	llm     llm.Client
	orch    *orchestrator.Orchestrator
	builder *contextbuilder.Builder
	writer  *generator.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return nil, errors.NewSnapshotError(s.root, "repository root is not a directory")
	}

	a := &app{settings: s, fs: afero.NewOsFs()}
	a.logger, err = newLogger(s.cfg, s.root, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	a.logger.Debug("configuration loaded", "files", s.files)
	a.bus = event.NewBus(event.WithLogger(a.logger))

	blobs, err := blob.Open(a.fs, s.root, s.cfg.Store)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = artifact.New(blobs)

	a.llm, err = llm.New(cmd.Context(), s.cfg.LLM)
	if err != nil {
		a.close()
		return nil, err
	}
	if a.llm != nil {
		a.logger.Info("llm client enabled", "client", llm.Describe(a.llm))
	}

	reg, err := analyzer.Defaults(analyzer.Options{Fs: a.fs, Ignore: s.cfg.Analysis.Ignore, LLM: a.llm})
	if err != nil {
		a.close()
		return nil, err
	}

	a.orch = orchestrator.New(reg, a.store,
		orchestrator.WithFs(a.fs),
		orchestrator.WithObserver(a.bus),
		orchestrator.WithLogger(a.logger))
	a.builder = contextbuilder.New(a.store, contextbuilder.WithLogger(a.logger))
	a.writer = generator.NewWriter(a.fs, a.store, a.bus, a.logger)
	return a, nil
}

// newLogger writes JSON logs to the dated directory under logging.dir and
// mirrors warnings to console when enabled.
func newLogger(cfg *config.Config, root string, console io.Writer) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	opts := logging.Options{
		Dir:      logging.DailyDir(config.ResolvePath(root, cfg.Logging.Dir), time.Now()),
		Level:    cfg.Logging.Level,
		Rotation: cfg.Logging.RotationConfig(),
	}
	if cfg.Logging.Console {
		opts.Console = console
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}

func (a *app) close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close artifact store", "error", err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) snapshot() (analysis.Snapshot, error) {
	return analysis.ResolveSnapshot(a.fs, a.root)
}

func (a *app) request(snap analysis.Snapshot, ex registry.Exclusions) orchestrator.Request {
	return orchestrator.RequestFromConfig(a.cfg, snap, ex, a.orch.Registry().Universe())
}

// generators builds the named generators in the given order.
func (a *app) generators(kinds ...string) ([]generator.Generator, error) {
	gens := make([]generator.Generator, 0, len(kinds))
	for _, kind := range kinds {
		var (
			g   generator.Generator
			err error
		)
		switch kind {
		case generator.KindReadme:
			g, err = generator.NewReadme(generator.ReadmeOptionsFromConfig(a.cfg, a.fs, a.llm))
		case generator.KindRules:
			g, err = generator.NewRules(generator.RulesOptionsFromConfig(a.cfg, a.fs))
		default:
			err = errors.NewValidationError("generator", kind, "unknown generator")
		}
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// analyze runs one orchestration pass, with the progress view when tui is
// set and stdout is a terminal.
func (a *app) analyze(ctx context.Context, out, errOut io.Writer, flags *analysisFlags, tui bool) (*analysis.ExecutionReport, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	ex, err := flags.exclusions(a.cfg)
	if err != nil {
		return nil, err
	}
	req := a.request(snap, ex)

	var rep *analysis.ExecutionReport
	run := func(ctx context.Context) error {
		var err error
		rep, err = a.orch.Run(ctx, req)
		return err
	}

	if tui && progress.Enabled(out) {
		err = progress.Run(ctx, a.bus, out, run)
	} else {
		unsubscribe := printTasks(a.bus, errOut)
		err = run(ctx)
		unsubscribe()
	}
	return rep, err
}

// generate renders and writes documents from the stored analysis and prints
// one line per document.
func (a *app) generate(ctx context.Context, out io.Writer, snap analysis.Snapshot, kinds ...string) error {
	gens, err := a.generators(kinds...)
	if err != nil {
		return err
	}
	docs, err := generator.Run(ctx, a.builder, a.writer, snap, gens...)
	printDocuments(out, docs)
	return err
}
