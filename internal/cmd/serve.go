package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/generator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/orchestrator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Start an HTTP API (HTTP/1.1 and cleartext HTTP/2) for the repository.

Endpoints:
  POST /v1/runs                                start a run, optionally generating documents
  GET  /v1/snapshot                            the current snapshot
  GET  /v1/snapshots/{id}/report               latest execution report ("current" for {id})
  GET  /v1/snapshots/{id}/reports[/{run}]      run history or one run
  GET  /v1/snapshots/{id}/artifacts[/{name}]   stored artifacts
  GET  /v1/snapshots/{id}/documents            generated documents
  POST /v1/generate/{readme|rules|all}         generate from stored artifacts
  GET  /v1/events?type=run.completed,...       websocket stream of pipeline events`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	flagKeys["addr"] = "server.addr"
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	gens, err := a.generators(generator.Kinds()...)
	if err != nil {
		return err
	}

	svc := server.NewService(server.Options{
		Orchestrator: a.orch,
		Builder:      a.builder,
		Writer:       a.writer,
		Generators:   gens,
		Bus:          a.bus,
		Logger:       a.logger,
		Snapshot:     a.snapshot,
		Request: func(snap analysis.Snapshot) orchestrator.Request {
			return a.request(snap, nil)
		},
		Exclude: a.cfg.Analysis.Exclude,
	})
	srv := server.New(a.cfg.Server.Addr, server.BuildMux(svc), a.logger)

	cmd.Printf("serving %s on http://%s\n", a.root, a.cfg.Server.Addr)
	return srv.Run(cmd.Context(), a.cfg.Server.ShutdownTimeout)
}
