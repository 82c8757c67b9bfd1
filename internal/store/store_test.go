package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const settingsFileName = "remote_ftp_manager.json"

// settingsPath returns a path inside a fresh temp dir. The file does
// not exist yet.
func settingsPath(t *testing.T) FixedPath {
	t.Helper()
	return FixedPath(filepath.Join(t.TempDir(), "User", settingsFileName))
}

func writeSettingsRaw(t *testing.T, path FixedPath, content string) {
	t.Helper()
	p := string(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func readSettingsRaw(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func openSessions(t *testing.T, path FixedPath) *Sessions {
	t.Helper()
	s, err := OpenSessions(path, zap.NewNop())
	require.NoError(t, err)
	return s
}

func sampleSessions() []Session {
	return []Session{
		{Name: "Prod", Type: "sftp", Host: "prod.example.com", Port: 22,
			Username: "deploy", Password: "pw", RemotePath: "/srv/www",
			ConnectTimeout: 10, LocalPath: "/home/me/www"},
		{Name: "staging", Type: "ftp", Host: "10.0.0.5", Port: 21,
			RemotePath: "/", ConnectTimeout: 30},
		{Name: "prod", Type: "ftp", Host: "dup.example.com", Port: 21},
	}
}

func TestOpenSessions_SeedsMissingFile(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)

	assert.Equal(t, 1, s.Len())
	assert.FileExists(t, string(path))

	var onDisk []Session
	require.NoError(t, json.Unmarshal(
		[]byte(readSettingsRaw(t, string(path))), &onDisk,
	))
	if diff := cmp.Diff([]Session{SampleSession}, onDisk); diff != "" {
		t.Errorf("seeded file mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenSessions_KeepsExistingFile(t *testing.T) {
	path := settingsPath(t)
	writeSettingsRaw(t, path, `[{"name":"keep","host":"h"}]`)

	s := openSessions(t, path)
	assert.Equal(t, 0, s.Len(), "open must not read the file")
	require.NoError(t, s.Load())
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Exists("KEEP"))
}

func TestOpen_PathProviderError(t *testing.T) {
	_, err := OpenSessions(FixedPath(""), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrInvalid)

	_, err = OpenProjects(nil, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	s.Remove("name")
	for _, r := range sampleSessions() {
		s.Add(r)
	}
	require.NoError(t, s.Save())

	fresh := openSessions(t, path)
	require.NoError(t, fresh.Load())
	if diff := cmp.Diff(sampleSessions(), fresh.Records()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExampleScenario(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	require.NoError(t, s.Load())
	s.Remove("name")
	s.Add(Session{
		Name: "a", Type: "t", Host: "h", Port: 21, Username: "u",
		Password: "p", RemotePath: "/r", ConnectTimeout: 30,
		LocalPath: "/l",
	})
	require.NoError(t, s.Save())

	fresh := openSessions(t, path)
	require.NoError(t, fresh.Load())
	assert.Equal(t, 1, fresh.Len())
	assert.True(t, fresh.Exists("A"))
}

func TestSave_Format(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	s.Remove("name")
	require.NoError(t, s.Save())
	assert.Equal(t, "[]", readSettingsRaw(t, string(path)))

	s.Add(Session{Name: "x", Port: 21})
	require.NoError(t, s.Save())
	raw := readSettingsRaw(t, string(path))
	assert.True(t, strings.HasPrefix(raw, "[\n\t{\n\t\t\"name\": \"x\","),
		"expected tab indentation, got %q", raw)

	entries, err := os.ReadDir(filepath.Dir(string(path)))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(e.Name()),
			"save left temp file %s", e.Name())
	}
}

func TestSave_DoesNotHappenImplicitly(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	before := readSettingsRaw(t, string(path))

	s.Add(Session{Name: "unsaved"})
	s.Remove("name")

	assert.Equal(t, before, readSettingsRaw(t, string(path)))
}

func TestRemove_CaseInsensitiveFirstMatch(t *testing.T) {
	s := openSessions(t, settingsPath(t))
	s.Remove("name")
	for _, r := range sampleSessions() {
		s.Add(r)
	}

	got, ok := s.Remove("PROD")
	require.True(t, ok)
	assert.Equal(t, "prod.example.com", got.Host, "first match wins")
	assert.True(t, s.Exists("prod"), "duplicate should remain")

	got, ok = s.Remove("prod")
	require.True(t, ok)
	assert.Equal(t, "dup.example.com", got.Host)
	assert.False(t, s.Exists("Prod"))
	assert.Equal(t, 1, s.Len())
}

func TestRemove_Missing(t *testing.T) {
	s := openSessions(t, settingsPath(t))
	got, ok := s.Remove("nope")
	assert.False(t, ok)
	assert.Equal(t, Session{}, got)
	assert.Equal(t, 1, s.Len())
}

func TestAdd_AllowsDuplicates(t *testing.T) {
	s := openSessions(t, settingsPath(t))
	s.Add(Session{Name: "Foo", Host: "one"})
	s.Add(Session{Name: "foo", Host: "two"})
	assert.Equal(t, 3, s.Len())

	got, ok := s.Get("FOO")
	require.True(t, ok)
	assert.Equal(t, "one", got.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	require.NoError(t, os.Remove(string(path)))

	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())
	assert.FileExists(t, string(path))
	assert.Equal(t, "[]", readSettingsRaw(t, string(path)))
}

func TestLoad_InvalidJSONKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Truncated", "{not valid"},
		{"Object", `{"name":"x"}`},
		{"NonNumericPort", `[{"name":"x","port":"twenty-one"}]`},
		{"NotAnObject", `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := settingsPath(t)
			s := openSessions(t, path)
			require.NoError(t, s.Load())
			require.Equal(t, 1, s.Len())

			writeSettingsRaw(t, path, tt.content)
			err := s.Load()
			require.Error(t, err)
			assert.NotEmpty(t, err.Error())

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, string(path), pe.Path)
			assert.Equal(t, 1, s.Len(), "state must be unchanged")
			assert.True(t, s.Exists("name"))
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := settingsPath(t)
	writeSettingsRaw(t, path, "")
	s := openSessions(t, path)
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())
}

func TestReload(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)
	require.NoError(t, s.Load())

	writeSettingsRaw(t, path, `[{"name":"a"},{"name":"b"}]`)
	require.NoError(t, s.Reload())
	assert.Equal(t, 2, s.Len())

	writeSettingsRaw(t, path, "{not valid")
	err := s.Reload()
	require.Error(t, err)
	var pe *ParseError
	assert.False(t, errors.As(err, &pe), "reload returns the raw decode error")
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestLoad_MigratesLegacyFormat(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := settingsPath(t)
	writeSettingsRaw(t, path, `[
		{"label": "Prod", "description": "prod.example.com"},
		{"label": "Staging", "description": "10.0.0.5"}
	]`)

	s, err := OpenSessions(path, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, s.Load())

	want := []Session{
		{Name: "Prod", Host: "prod.example.com"},
		{Name: "Staging", Host: "10.0.0.5"},
	}
	if diff := cmp.Diff(want, s.Records()); diff != "" {
		t.Errorf("migrated records (-want +got):\n%s", diff)
	}

	raw := readSettingsRaw(t, string(path))
	assert.NotContains(t, raw, `"label"`)
	assert.Contains(t, raw, `"remote_path"`)
	assert.Equal(t, 1,
		logs.FilterMessage("migrating legacy settings format").Len())

	// Second load sees the current schema and does not migrate again.
	require.NoError(t, s.Load())
	assert.Equal(t, 1,
		logs.FilterMessage("migrating legacy settings format").Len())
}

func TestReload_MigratesSilently(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	path := settingsPath(t)
	writeSettingsRaw(t, path, `[{"label":"a","description":"/a"}]`)

	p, err := OpenProjects(path, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, p.Reload())

	assert.Equal(t, 0,
		logs.FilterMessage("migrating legacy settings format").Len())
	assert.NotContains(t, readSettingsRaw(t, string(path)), `"label"`)
	got, ok := p.Get("A")
	require.True(t, ok)
	assert.Equal(t, "/a", got.RootPath)
}

func TestLoad_LegacyOnlyWhenFirstElementHasLabel(t *testing.T) {
	path := settingsPath(t)
	writeSettingsRaw(t, path,
		`[{"name":"a","host":"h"},{"label":"b","description":"d"}]`)
	s := openSessions(t, path)
	require.NoError(t, s.Load())

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Name)
	assert.Equal(t, "", recs[1].Name, "non-leading legacy entries are not migrated")
}

func TestMap(t *testing.T) {
	s := openSessions(t, settingsPath(t))
	s.Remove("name")
	for _, r := range sampleSessions() {
		s.Add(r)
	}
	want := []PickItem{
		{Label: "Prod", Description: "prod.example.com"},
		{Label: "staging", Description: "10.0.0.5"},
		{Label: "prod", Description: "dup.example.com"},
	}
	if diff := cmp.Diff(want, s.Map()); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}

	s.Remove("prod")
	s.Remove("prod")
	s.Remove("staging")
	assert.NotNil(t, s.Map())
	assert.Empty(t, s.Map())
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(_ context.Context, path string) error {
	f.opened = append(f.opened, path)
	return f.err
}

func TestOpen(t *testing.T) {
	path := settingsPath(t)
	s := openSessions(t, path)

	o := &fakeOpener{}
	require.NoError(t, s.Open(context.Background(), o))
	assert.Equal(t, []string{string(path)}, o.opened)

	o.err = errors.New("no editor")
	assert.EqualError(t, s.Open(context.Background(), o), "no editor")

	assert.ErrorIs(t, s.Open(context.Background(), nil), os.ErrInvalid)
}
