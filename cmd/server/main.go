package main

import (
	"flag"
	"net/http"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shellci/internal/config"
	"shellci/internal/core"
	"shellci/internal/journal"
	"shellci/internal/security"
	"shellci/internal/server"
	"shellci/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("cannot load config", "error", err)
	}

	wf, err := core.LoadWorkflow(cfg.Workflow.Path)
	if err != nil {
		log.Fatalw("cannot load workflow", "path", cfg.Workflow.Path, "error", err)
	}

	pub, priv, err := security.EnsureKeyPair(
		filepath.Join(cfg.Storage.KeysDir, "server.pub"),
		filepath.Join(cfg.Storage.KeysDir, "server.priv"),
	)
	if err != nil {
		log.Fatalw("cannot init signing keys", "error", err)
	}

	jnl, err := journal.Open(cfg.Storage.JournalPath, priv, pub)
	if err != nil {
		// fail-open: runs proceed without the journal
		log.Warnw("cannot open journal", "path", cfg.Storage.JournalPath, "error", err)
		jnl = nil
	}

	var exec core.JobExecutor
	if cfg.Agent.URL != "" {
		exec = core.NewRemoteExecutor(cfg.Agent.URL)
		log.Infow("delegating jobs to agent", "url", cfg.Agent.URL)
	} else {
		local := core.NewExecutor()
		local.StepTimeout = cfg.Tools.StepTimeout
		local.LintBin = cfg.Tools.Shellcheck
		local.FmtBin = cfg.Tools.Shfmt
		exec = local
	}

	runner := core.NewRunner(exec)
	runner.Logs = storage.NewLogStore(cfg.Storage.LogsDir)
	runner.Journal = jnl
	runner.RepoDir = cfg.Workflow.RepoDir
	runner.Log = log

	dispatcher := core.NewDispatcher(runner, log)
	srv := server.New(wf, dispatcher, jnl, cfg.Server.WebhookSecret, log)

	log.Infow("shellci server listening", "address", cfg.Server.Address, "workflow", wf.Name)
	if err := http.ListenAndServe(cfg.Server.Address, srv.Router()); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
