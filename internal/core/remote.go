package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// JobRequest is the wire form of a job handed to an agent.
type JobRequest struct {
	Job Job               `json:"job"`
	Env map[string]string `json:"env,omitempty"`
	Dir string            `json:"dir,omitempty"`
}

// JobResponse is the agent's result for one job.
type JobResponse struct {
	Output string `json:"output"`
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
}

// RemoteExecutor delegates job execution to an agent over HTTP, giving each
// job its own isolated execution environment.
type RemoteExecutor struct {
	URL    string // agent base URL, e.g. http://localhost:9090
	Client *http.Client
}

func NewRemoteExecutor(url string) *RemoteExecutor {
	return &RemoteExecutor{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// ExecJob posts the job to the agent and maps its response back onto the
// local JobExecutor contract.
func (r *RemoteExecutor) ExecJob(ctx context.Context, job Job, env map[string]string, dir string) (string, error) {
	body, err := json.Marshal(JobRequest{Job: job, Env: env, Dir: dir})
	if err != nil {
		return "", fmt.Errorf("encode job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send job to agent: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent returned %s", resp.Status)
	}

	var jr JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return "", fmt.Errorf("decode agent response: %w", err)
	}
	if jr.Failed {
		return jr.Output, fmt.Errorf("job %q failed on agent: %s", job.Name, jr.Error)
	}
	return jr.Output, nil
}
