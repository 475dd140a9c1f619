package main

import (
	"os"
	"strings"

	"planline/internal/cli"
)

func isTimelineID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "tl-") && len(s) > len("tl-")
}

// rewriteDirectTimelineArgs turns `planline <timeline-id>` into
// `planline tui <timeline-id>`. Persistent flags may come first, so this looks
// for the first positional token rather than argv[1].
func rewriteDirectTimelineArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":    true,
		"--actor":  true,
		"--format": true,
		"--server": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "tui")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isTimelineID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags are skipped without their value so an id is never eaten.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isTimelineID(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectTimelineArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
