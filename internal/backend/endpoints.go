package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RunCode executes code through /execution/run-code.
func (c *Client) RunCode(ctx context.Context, code, language string) (RunResult, error) {
	body := struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}{Code: code, Language: language}
	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, "/execution/run-code", body, &env); err != nil {
		return RunResult{}, err
	}
	return env.validate()
}

// PrepareEnv asks the backend to pre-install what code needs.
func (c *Client) PrepareEnv(ctx context.Context, code string) (PrepareResult, error) {
	body := struct {
		Code string `json:"code"`
	}{Code: code}
	var env prepareEnvelope
	if err := c.do(ctx, http.MethodPost, "/execution/prepare-env", body, &env); err != nil {
		return PrepareResult{}, err
	}
	return env.validate()
}

// SubmitIBM submits hardware jobs and returns their ids.
func (c *Client) SubmitIBM(ctx context.Context, req SubmitRequest) ([]string, error) {
	var env submitEnvelope
	if err := c.do(ctx, http.MethodPost, "/execution/ibm/run", req, &env); err != nil {
		return nil, err
	}
	return env.validate()
}

// JobStatus fetches the current status of a hardware job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (StatusResult, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return StatusResult{}, fmt.Errorf("job id is required")
	}
	var env statusEnvelope
	if err := c.do(ctx, http.MethodGet, "/execution/status/"+url.PathEscape(jobID), nil, &env); err != nil {
		return StatusResult{}, err
	}
	return env.validate()
}

// SimulationRun runs a QASM circuit through the simulation pipeline.
func (c *Client) SimulationRun(ctx context.Context, req SimulationRequest) (SimulationResult, error) {
	var env simulationEnvelope
	if err := c.do(ctx, http.MethodPost, "/transpile/simulation/run", req, &env); err != nil {
		return SimulationResult{}, err
	}
	return env.validate()
}

// ListHardware returns the available execution backends.
func (c *Client) ListHardware(ctx context.Context) ([]HardwareBackend, error) {
	var env hardwareEnvelope
	if err := c.do(ctx, http.MethodGet, "/hardware/list", nil, &env); err != nil {
		return nil, err
	}
	return env.validate()
}

// Chat sends a conversation to the LLM endpoint and returns the reply text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if req.APIKeys == nil {
		req.APIKeys = map[string]string{}
	}
	if req.Messages == nil {
		req.Messages = []ChatMessage{}
	}
	var env chatEnvelope
	if err := c.do(ctx, http.MethodPost, "/llm/chat", req, &env); err != nil {
		return "", err
	}
	return env.validate()
}
