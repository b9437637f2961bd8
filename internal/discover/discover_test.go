package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/plimage/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func defaultOptions(root string) Options {
	return Options{Root: root, QuestionsDir: "questions", MetadataFile: "info.json"}
}

func TestFind_AllMatchingFilesExactlyOnce(t *testing.T) {
	root := t.TempDir()
	q := filepath.Join(root, "questions")
	writeFile(t, filepath.Join(q, "q1", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "week2", "q2", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "week2", "q3", "deep", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "q1", "other.json"), `{}`)
	writeFile(t, filepath.Join(root, "elements", "info.json"), `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(q, "trap", "info.json"), 0o755))

	d, err := New(defaultOptions(root))
	require.NoError(t, err)

	files, err := d.Find("", ledger.New())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(q, "q1", "info.json"),
		filepath.Join(q, "week2", "q2", "info.json"),
		filepath.Join(q, "week2", "q3", "deep", "info.json"),
	}, files)
}

func TestFind_HonoursIgnoreFilesAndExcludes(t *testing.T) {
	root := t.TempDir()
	q := filepath.Join(root, "questions")
	writeFile(t, filepath.Join(q, "keep", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "scratch", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "drafts", "d1", "info.json"), `{}`)
	writeFile(t, filepath.Join(root, ".plimageignore"), "questions/scratch/\n")

	opts := defaultOptions(root)
	opts.Exclude = []string{"questions/drafts/**"}
	opts.RespectIgnore = true
	d, err := New(opts)
	require.NoError(t, err)

	files, err := d.Find("", ledger.New())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(q, "keep", "info.json")}, files)
}

func TestFind_IgnoreFilesUnusedByDefault(t *testing.T) {
	root := t.TempDir()
	q := filepath.Join(root, "questions")
	writeFile(t, filepath.Join(q, "q1", "info.json"), `{}`)
	writeFile(t, filepath.Join(q, "generated", "q2", "info.json"), `{}`)
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n")
	writeFile(t, filepath.Join(root, ".plimageignore"), "questions/q1/\n")

	d, err := New(defaultOptions(root))
	require.NoError(t, err)

	files, err := d.Find("", ledger.New())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(q, "generated", "q2", "info.json"),
		filepath.Join(q, "q1", "info.json"),
	}, files)
}

func TestFind_DoesNotFollowSymlinkedDirs(t *testing.T) {
	root := t.TempDir()
	q := filepath.Join(root, "questions")
	writeFile(t, filepath.Join(q, "q1", "info.json"), `{}`)
	if err := os.Symlink(filepath.Join(q, "q1"), filepath.Join(q, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	d, err := New(defaultOptions(root))
	require.NoError(t, err)

	files, err := d.Find("", ledger.New())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(q, "q1", "info.json")}, files)
}

func TestFind_MissingQuestionsDir(t *testing.T) {
	d, err := New(defaultOptions(t.TempDir()))
	require.NoError(t, err)

	l := ledger.New()
	files, err := d.Find("", l)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Equal(t, 0, l.Len())
}

func TestFind_Scoped(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "questions", "q1", "info.json")
	writeFile(t, file, `{}`)

	d, err := New(defaultOptions(root))
	require.NoError(t, err)

	l := ledger.New()
	files, err := d.Find("q1", l)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
	assert.Equal(t, 0, l.Len())
}

func TestFind_ScopedMissingRecordsFileNotFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "questions", "empty"), 0o755))

	d, err := New(defaultOptions(root))
	require.NoError(t, err)

	l := ledger.New()
	files, err := d.Find("empty", l)
	require.NoError(t, err)
	assert.Empty(t, files)

	msgs := l.Messages(ledger.FileNotFound)
	require.Len(t, msgs, 1)
	assert.Equal(t, "No info.json found in the specified question folder: "+filepath.Join(root, "questions", "empty"), msgs[0])
}

func TestNew_InvalidExcludePattern(t *testing.T) {
	opts := defaultOptions(t.TempDir())
	opts.Exclude = []string{"questions/[unterminated"}
	_, err := New(opts)
	assert.Error(t, err)
}
