package main

import (
	"encoding/json"
	"flag"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shellci/internal/config"
	"shellci/internal/core"
)

// The agent executes one job per request in its own environment, keeping
// jobs isolated from the dispatcher and from each other.
type agent struct {
	exec *core.Executor
	log  *zap.SugaredLogger
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

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

	exec := core.NewExecutor()
	exec.StepTimeout = cfg.Tools.StepTimeout
	exec.LintBin = cfg.Tools.Shellcheck
	exec.FmtBin = cfg.Tools.Shfmt
	a := &agent{exec: exec, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/jobs", a.handleRunJob)

	log.Infow("shellci agent listening", "address", cfg.Agent.Address)
	if err := http.ListenAndServe(cfg.Agent.Address, r); err != nil {
		log.Fatalw("agent stopped", "error", err)
	}
}

func (a *agent) handleRunJob(w http.ResponseWriter, r *http.Request) {
	var req core.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.log.Infow("agent running job", "job", req.Job.Name)
	out, err := a.exec.ExecJob(r.Context(), req.Job, req.Env, req.Dir)

	resp := core.JobResponse{Output: out}
	if err != nil {
		resp.Failed = true
		resp.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
