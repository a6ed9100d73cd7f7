package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_DailyFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, err := NewWriter(dir)
	require.NoError(t, err)

	day := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	w.now = func() time.Time { return day.Add(2 * time.Minute) }
	_, err = w.Write([]byte("third\n"))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "rulemate_2025-03-09.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "rulemate_2025-03-10.log"))
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(got))
}

func TestWriter_EmptyWrite(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	n, err := w.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
