package userdir

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolverPath(t *testing.T) {
	home := func() (string, error) { return "/home/me", nil }
	none := func(string) bool { return false }
	all := func(string) bool { return true }

	tests := []struct {
		name string
		r    Resolver
		want string
	}{
		{
			name: "WindowsAppData",
			r: Resolver{
				GOOS:   "windows",
				Getenv: fakeEnv(map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`}),
				Exists: none,
			},
			want: filepath.Join(`C:\Users\me\AppData\Roaming`, "Code", "User", DefaultFileName),
		},
		{
			name: "Darwin",
			r: Resolver{
				GOOS:   "darwin",
				Getenv: fakeEnv(map[string]string{"HOME": "/Users/me"}),
				Exists: none,
			},
			want: filepath.Join("/Users/me", "Library", "Application Support", "Code", "User", DefaultFileName),
		},
		{
			name: "LinuxVarLocalPresent",
			r: Resolver{
				GOOS: "linux", Getenv: fakeEnv(nil), HomeDir: home, Exists: all,
			},
			want: filepath.Join("/var/local", "Code", "User", DefaultFileName),
		},
		{
			name: "LinuxFallsBackToConfig",
			r: Resolver{
				GOOS: "linux", Getenv: fakeEnv(nil), HomeDir: home, Exists: none,
			},
			want: filepath.Join("/home/me", ".config", "Code", "User", DefaultFileName),
		},
		{
			name: "LinuxInsidersCustomFile",
			r: Resolver{
				AppName:  "Visual Studio Code - Insiders",
				FileName: "projects.json",
				GOOS:     "linux",
				Getenv:   fakeEnv(nil),
				HomeDir:  home,
				Exists:   none,
			},
			want: filepath.Join("/home/me", ".config", "Code - Insiders", "User", "projects.json"),
		},
		{
			name: "FreeBSDNoFallback",
			r: Resolver{
				GOOS: "freebsd", Getenv: fakeEnv(nil), HomeDir: home, Exists: none,
			},
			want: filepath.Join("/var/local", "Code", "User", DefaultFileName),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Path()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverChannel(t *testing.T) {
	tests := []struct {
		appName string
		want    string
	}{
		{"", "Code"},
		{"Visual Studio Code", "Code"},
		{"Visual Studio Code - Insiders", "Code - Insiders"},
		// Only a name with a prefix before "Insiders" counts.
		{"Insiders", "Code"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolver{AppName: tt.appName}.Channel(), tt.appName)
	}
}

func TestResolverPath_Errors(t *testing.T) {
	_, err := Resolver{GOOS: "darwin", Getenv: fakeEnv(nil)}.Path()
	assert.Error(t, err)

	boom := errors.New("no home")
	_, err = Resolver{
		GOOS:    "linux",
		Getenv:  fakeEnv(nil),
		HomeDir: func() (string, error) { return "", boom },
		Exists:  func(string) bool { return false },
	}.Path()
	assert.ErrorIs(t, err, boom)
}
