package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_Globs(t *testing.T) {
	m, err := New([]string{"vendor/**", "*.min.js", "./docs/*.md"})
	require.NoError(t, err)

	assert.True(t, m.Match("vendor/a/b.go", false))
	assert.True(t, m.Match("web/app.min.js", false))
	assert.True(t, m.Match("docs/intro.md", false))
	assert.False(t, m.Match("docs/deep/intro.md", false))
	assert.False(t, m.Match("src/main.go", false))
}

func TestMatch_Defaults(t *testing.T) {
	m, err := New(DefaultExcludes)
	require.NoError(t, err)

	assert.True(t, m.Match(".git", true))
	assert.True(t, m.Match("sub/.git", true))
	assert.True(t, m.Match("assets/logo.png", false))
	assert.True(t, m.Match("node_modules", true))
	assert.False(t, m.Match("README.md", false))
	assert.False(t, m.Match(".github/workflows/ci.yml", false))
}

func TestNew_BadPattern(t *testing.T) {
	_, err := New([]string{"[unclosed"})
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestZeroMatcher(t *testing.T) {
	var m Matcher
	assert.False(t, m.Match("anything", false))
	assert.Equal(t, 0, m.Len())
}

func TestLoadFile_Gitignore(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(p, []byte("# comment\nbuild/\n*.log\n!keep.log\n"), 0o644))

	var m Matcher
	require.NoError(t, m.LoadFile(p))

	assert.True(t, m.Match("build", true))
	assert.True(t, m.Match("out/debug.log", false))
	assert.False(t, m.Match("keep.log", false))
	assert.False(t, m.Match("src/main.go", false))
}

func TestLoadFile_Missing(t *testing.T) {
	var m Matcher
	require.NoError(t, m.LoadFile(filepath.Join(t.TempDir(), FileName)))
	assert.Equal(t, 0, m.Len())
}

func TestAddPath_Literal(t *testing.T) {
	var m Matcher
	m.AddPath("./ci/rules[1].yaml")
	assert.True(t, m.Match("ci/rules[1].yaml", false))
	assert.False(t, m.Match("ci/rules1.yaml", false))
	assert.Equal(t, 1, m.Len())
}

func TestSplitList_KeepsBraces(t *testing.T) {
	got := SplitList([]string{"*.{md,txt}", "vendor/**,build/**", "x/{a,{b,c}}/*,y"})
	assert.Equal(t, []string{"*.{md,txt}", "vendor/**", "build/**", "x/{a,{b,c}}/*", "y"}, got)
	assert.Nil(t, SplitList(nil))

	m, err := New(SplitList([]string{"*.{md,txt}"}))
	require.NoError(t, err)
	assert.True(t, m.Match("docs/a.md", false))
	assert.True(t, m.Match("b.txt", false))
	assert.False(t, m.Match("c.go", false))
}
