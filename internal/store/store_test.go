package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/config"
	"netwatch/internal/domain"
)

type record struct{ a, b string }

func collect(t *testing.T, l Log) ([]record, int) {
	t.Helper()
	var got []record
	n, err := l.Replay(context.Background(), func(a, b string) {
		got = append(got, record{a, b})
	})
	require.NoError(t, err)
	return got, n
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		line    string
		a, b    string
		wantErr bool
	}{
		{line: "10.0.0.1,10.0.0.2", a: "10.0.0.1", b: "10.0.0.2"},
		{line: "10.0.0.1, 10.0.0.2", a: "10.0.0.1", b: "10.0.0.2"},
		{line: "10.0.0.1,10.0.0.2 trailing", a: "10.0.0.1", b: "10.0.0.2"},
		{line: "10.0.0.1,10.0.0.2\r", a: "10.0.0.1", b: "10.0.0.2"},
		{line: "a,b,c", a: "a", b: "b,c"},
		{line: "host-a,host-b", a: "host-a", b: "host-b"},
		{line: "onlyonefield", wantErr: true},
		{line: "", wantErr: true},
		{line: ",10.0.0.2", wantErr: true},
		{line: "10.0.0.1,", wantErr: true},
		{line: "10.0.0.1,   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			a, b, err := ParseRecord(tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestFormatRecord(t *testing.T) {
	line, err := FormatRecord("10.0.0.1", "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1,10.0.0.2\n", line)

	for _, bad := range []record{{"", "b"}, {"a", ""}, {"a,x", "b"}, {"a", "b c"}, {"a\n", "b"}} {
		_, err := FormatRecord(bad.a, bad.b)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord, "%q,%q", bad.a, bad.b)
	}
}

func TestFileLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.csv")
	l := NewFileLog(path)
	ctx := context.Background()

	want := []record{{"10.0.0.1", "10.0.0.2"}, {"10.0.0.2", "10.0.0.3"}, {"router", "10.0.0.1"}}
	for _, r := range want {
		require.NoError(t, l.Append(ctx, r.a, r.b))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1,10.0.0.2\n10.0.0.2,10.0.0.3\nrouter,10.0.0.1\n", string(raw))

	got, n := collect(t, l)
	assert.Equal(t, 3, n)
	assert.Equal(t, want, got)
}

func TestFileLogMissingFile(t *testing.T) {
	l := NewFileLog(filepath.Join(t.TempDir(), "absent.csv"))

	got, n := collect(t, l)
	assert.Zero(t, n)
	assert.Empty(t, got)

	var buf bytes.Buffer
	written, err := l.WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestFileLogSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.csv")
	data := "onlyonefield\n10.0.0.1,10.0.0.2\n\n,missing\n10.0.0.3,10.0.0.4\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	got, n := collect(t, NewFileLog(path))

	assert.Equal(t, 2, n)
	assert.Equal(t, []record{{"10.0.0.1", "10.0.0.2"}, {"10.0.0.3", "10.0.0.4"}}, got)
}

func TestFileLogSkipsOverlongLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.csv")
	long := strings.Repeat("x", 2*MaxLineSize)
	data := long + "\n10.0.0.1,10.0.0.2\n" + long + ",y\n10.0.0.3,10.0.0.4"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	got, n := collect(t, NewFileLog(path))

	assert.Equal(t, 2, n)
	assert.Equal(t, []record{{"10.0.0.1", "10.0.0.2"}, {"10.0.0.3", "10.0.0.4"}}, got)
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []record
	}{
		{"empty", "", nil},
		{"no trailing newline", "a,b", []record{{"a", "b"}}},
		{"crlf", "a,b\r\nc,d\r\n", []record{{"a", "b"}, {"c", "d"}}},
		{"line at the limit", strings.Repeat("a", MaxLineSize-2) + ",b\n", []record{{strings.Repeat("a", MaxLineSize-2), "b"}}},
		{"line over the limit", strings.Repeat("a", MaxLineSize) + ",b\nc,d\n", []record{{"c", "d"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []record
			n, err := ReadRecords(context.Background(), strings.NewReader(tt.input), func(a, b string) {
				got = append(got, record{a, b})
			})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileLogAppendErrors(t *testing.T) {
	t.Run("unwritable location", func(t *testing.T) {
		l := NewFileLog(filepath.Join(t.TempDir(), "missing-dir", "connections.csv"))
		err := l.Append(context.Background(), "a", "b")
		assert.ErrorIs(t, err, domain.ErrStoreIO)
	})

	t.Run("read only file", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits not enforced")
		}
		path := filepath.Join(t.TempDir(), "connections.csv")
		require.NoError(t, os.WriteFile(path, nil, 0444))

		err := NewFileLog(path).Append(context.Background(), "a", "b")
		assert.ErrorIs(t, err, domain.ErrStoreIO)
	})

	t.Run("unparseable record is refused", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "connections.csv")
		err := NewFileLog(path).Append(context.Background(), "a,b", "c")
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		assert.NoFileExists(t, path)
	})
}

func TestFileLogReplayHonoursCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\nc,d\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := NewFileLog(path).Replay(ctx, func(a, b string) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		l, err := Open(config.StoreConfig{Backend: config.BackendCSV, Path: filepath.Join(dir, "c.csv")})
		require.NoError(t, err)
		defer l.Close()
		assert.IsType(t, &FileLog{}, l)
		assert.Equal(t, filepath.Join(dir, "c.csv"), l.Location())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(dir, "log.db")
		l, err := Open(config.StoreConfig{Backend: config.BackendSQLite, Path: path})
		require.NoError(t, err)
		defer l.Close()

		ctx := context.Background()
		require.NoError(t, l.Append(ctx, "a", "b"))
		got, n := collect(t, l)
		assert.Equal(t, 1, n)
		assert.Equal(t, []record{{"a", "b"}}, got)
		assert.Equal(t, path, l.Location())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(config.StoreConfig{Backend: "etcd", Path: "x"})
		assert.Error(t, err)
	})
}

func TestDump(t *testing.T) {
	ctx := context.Background()

	t.Run("file log is copied verbatim", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "connections.csv")
		data := "a,b\nbroken\nc,d\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		var buf bytes.Buffer
		require.NoError(t, Dump(ctx, NewFileLog(path), &buf))
		assert.Equal(t, data, buf.String())
	})

	t.Run("other backends are rendered in wire format", func(t *testing.T) {
		l, err := Open(config.StoreConfig{Backend: config.BackendSQLite, Path: filepath.Join(t.TempDir(), "log.db")})
		require.NoError(t, err)
		defer l.Close()
		require.NoError(t, l.Append(ctx, "a", "b"))
		require.NoError(t, l.Append(ctx, "c", "d"))

		var buf bytes.Buffer
		require.NoError(t, Dump(ctx, l, &buf))
		assert.Equal(t, "a,b\nc,d\n", buf.String())
	})
}
