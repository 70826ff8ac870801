// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" frames found in a raw stack
// trace, in call order. Frames from the runtime and dependencies are dropped.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ".go:") {
			continue
		}

		// "/abs/path/internal/pkg/x.go:12 +0x1d" -> "internal/pkg/x.go:12"
		frame, _, _ := strings.Cut(line, " ")
		idx := strings.Index(frame, "/internal/")
		if idx == -1 {
			continue
		}
		paths = append(paths, frame[idx+1:])
	}
	return paths
}
