package ignore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the per-tree ignore file, read from the scan root.
const FileName = ".textgateignore"

var ErrBadPattern = errors.New("bad exclude pattern")

// DefaultExcludes cover VCS metadata, dependency trees and file types that are
// never text.
var DefaultExcludes = []string{
	".git", ".hg", ".svn", "node_modules",
	"*.{png,jpg,jpeg,gif,bmp,ico,webp,pdf}",
	"*.{zip,tar,gz,tgz,bz2,xz,7z,rar,jar,war}",
	"*.{exe,dll,so,dylib,a,o,class,pyc,wasm}",
	"*.{woff,woff2,ttf,otf,eot,mp3,mp4,mov,avi}",
}

// Matcher decides whether a root-relative, slash-separated path is excluded.
// The zero Matcher excludes nothing.
type Matcher struct {
	globs []string
	paths map[string]bool
	ps    []gitignore.Pattern
}

// New validates globs and builds a Matcher from them. A pattern without '/'
// also matches the base name at any depth, so ".git" prunes every .git dir.
func New(globs []string) (Matcher, error) {
	var m Matcher
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		g = strings.TrimPrefix(g, "./")
		if !doublestar.ValidatePattern(g) {
			return Matcher{}, fmt.Errorf("%w: %q", ErrBadPattern, g)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// SplitList splits comma-separated glob lists, keeping commas inside braces
// so "*.{md,txt}" stays one pattern.
func SplitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		depth, start := 0, 0
		for i, c := range v {
			switch c {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					out = append(out, v[start:i])
					start = i + 1
				}
			}
		}
		out = append(out, v[start:])
	}
	return out
}

// LoadFile adds gitignore-style patterns from path. A missing file is fine.
func (m *Matcher) LoadFile(p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.ps = append(m.ps, gitignore.ParsePattern(line, nil))
	}
	return nil
}

// AddPath excludes one exact relative path, taken literally.
func (m *Matcher) AddPath(rel string) {
	if m.paths == nil {
		m.paths = map[string]bool{}
	}
	m.paths[path.Clean(rel)] = true
}

func (m Matcher) Len() int { return len(m.globs) + len(m.paths) + len(m.ps) }

// Match reports whether rel is excluded. isDir enables directory-only
// gitignore patterns such as "build/".
func (m Matcher) Match(rel string, isDir bool) bool {
	if m.paths[rel] {
		return true
	}
	base := path.Base(rel)
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, _ := doublestar.Match(g, base); ok {
				return true
			}
		}
	}
	if len(m.ps) > 0 {
		parts := strings.Split(rel, "/")
		// Last matching pattern wins, negations included.
		excluded := false
		for _, pat := range m.ps {
			switch pat.Match(parts, isDir) {
			case gitignore.Exclude:
				excluded = true
			case gitignore.Include:
				excluded = false
			}
		}
		return excluded
	}
	return false
}
