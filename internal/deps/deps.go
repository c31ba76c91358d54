package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary speakerid shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Satisfied reports whether the dependency is available or may be skipped.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// CheckBinaries resolves each requirement on PATH and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the names of required dependencies that are unavailable.
func Missing(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if !s.Satisfied() {
			names = append(names, s.Name)
		}
	}
	return names
}
