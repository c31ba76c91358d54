package preflight

import (
	"speakerid/internal/config"
	"speakerid/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for cfg, including binary checks.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckStoreDirectory("Speakers directory", cfg.Paths.SpeakersDir),
		CheckToken(cfg.HFToken("")),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckStoreDirectory("Log directory", cfg.Paths.LogDir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(s deps.Status) Result {
	detail := s.Detail
	if s.Available {
		detail = s.Path
	} else if s.Optional {
		detail += " (optional)"
	}
	return Result{Name: s.Name, Passed: s.Satisfied(), Detail: detail}
}
