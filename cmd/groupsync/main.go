package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"groupsync/internal/cli"
	"groupsync/internal/model"
)

func isGroupID(s string) bool {
	_, err := model.ParseGroupID(strings.TrimSpace(s))
	return err == nil
}

// rewriteDirectGroupLookupArgs turns `groupsync <group-id>` into
// `groupsync groups show <group-id>`. Cobra treats the first positional token
// as a subcommand, so argv is rewritten before parsing. Persistent flags may
// come first.
func rewriteDirectGroupLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config":    true,
		"--db":        true,
		"--debounce":  true,
		"--log-level": true,
		"--format":    true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "groups", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) && isGroupID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		case isGroupID(a):
			return insert(i)
		default:
			return argv
		}
	}
	return argv
}

func main() {
	os.Args = rewriteDirectGroupLookupArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
