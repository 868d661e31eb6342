package gitexec

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotRepo = errors.New("not a git repository")

// outputCommand is swapped out in tests.
var outputCommand = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

func Output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	return outputCommand(ctx, dir, "git", args...)
}

func WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// HooksDir returns the hooks directory of the repository at dir, honoring
// core.hooksPath and worktrees. Without a usable git binary it falls back to
// dir/.git/hooks when that exists.
func HooksDir(dir string) (string, error) {
	ctx, cancel := WithTimeout(2 * time.Second)
	defer cancel()
	out, err := Output(ctx, dir, "rev-parse", "--git-path", "hooks")
	if err == nil {
		p := strings.TrimSpace(string(out))
		if p != "" {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			return p, nil
		}
	}
	fallback := filepath.Join(dir, ".git", "hooks")
	if st, serr := os.Stat(fallback); serr == nil && st.IsDir() {
		return fallback, nil
	}
	return "", ErrNotRepo
}
