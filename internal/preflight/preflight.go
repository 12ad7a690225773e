package preflight

import (
	"path/filepath"

	"arremsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the local checks that apply to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatable("Lock directory", filepath.Dir(cfg.Sync.LockPath)),
	}
	if cfg.Logging.File != "" {
		if path, err := config.ExpandPath(cfg.Logging.File); err == nil {
			results = append(results, CheckCreatable("Log directory", filepath.Dir(path)))
		} else {
			results = append(results, Result{Name: "Log directory", Detail: err.Error()})
		}
	}
	return results
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}
