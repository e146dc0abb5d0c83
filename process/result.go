package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or never started.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Diagnostic returns the last n non-blank lines of stderr, falling back to
// stdout when stderr is empty. Tools often print their errors to stdout.
func (r *Result) Diagnostic(n int) string {
	if r == nil {
		return ""
	}
	if s := tailLines(string(r.Stderr), n); s != "" {
		return s
	}
	return tailLines(string(r.Stdout), n)
}

func tailLines(s string, n int) string {
	lines := make([]string, 0, n)
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
