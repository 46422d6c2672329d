package progress

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var percentRe = regexp.MustCompile(`(\d+)%$`)

func frames(out string) []int {
	var got []int
	for _, frame := range strings.Split(strings.TrimRight(out, "\n"), "\r") {
		if frame == "" {
			continue
		}
		m := percentRe.FindStringSubmatch(frame)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		got = append(got, n)
	}
	return got
}

func TestBarAdvancesUpToCeiling(t *testing.T) {
	var buf bytes.Buffer

	bar := New(&buf)
	bar.interval = time.Millisecond
	bar.Start()
	time.Sleep(100 * time.Millisecond)
	bar.Stop()

	out := buf.String()
	require.True(t, strings.HasSuffix(out, "100%\n"), out)
	assert.Contains(t, out, label)

	got := frames(out)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 100, got[len(got)-1])

	for i, p := range got[:len(got)-1] {
		assert.LessOrEqual(t, p, 90)
		if i > 0 {
			assert.GreaterOrEqual(t, p, got[i-1])
		}
	}
	assert.Contains(t, got, 90)
}

func TestTrack(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer

		got, err := Track(&buf, false, func() (string, error) { return "done", nil })

		require.NoError(t, err)
		assert.Equal(t, "done", got)
		assert.Empty(t, buf.String())
	})

	t.Run("enabled", func(t *testing.T) {
		var buf bytes.Buffer
		failure := errors.New("boom")

		got, err := Track(&buf, true, func() (int, error) { return 7, failure })

		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 7, got)
		assert.True(t, strings.HasSuffix(buf.String(), "100%\n"))
	})
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, Enabled(f))
}
