// Package userdir locates files in the editor's per-user settings
// directory.
package userdir

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultFileName is the settings file kept in the User directory.
const DefaultFileName = "remote_ftp_manager.json"

const (
	stableChannel   = "Code"
	insidersChannel = "Code - Insiders"
)

// Resolver derives the settings file path from the platform
// conventions of the editor. The zero value resolves DefaultFileName
// for the stable channel using the real process environment.
type Resolver struct {
	// AppName is the editor's display name. Names containing
	// "Insiders" select the insiders channel.
	AppName  string
	FileName string

	GOOS    string
	Getenv  func(string) string
	HomeDir func() (string, error)
	Exists  func(string) bool
}

// Channel returns the channel directory name for AppName.
func (r Resolver) Channel() string {
	if strings.Index(r.AppName, "Insiders") > 0 {
		return insidersChannel
	}
	return stableChannel
}

// Path returns the absolute settings file path. It does not create
// anything.
func (r Resolver) Path() (string, error) {
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	exists := r.Exists
	if exists == nil {
		exists = fileExists
	}
	file := r.FileName
	if file == "" {
		file = DefaultFileName
	}
	channel := r.Channel()

	base := getenv("APPDATA")
	if base == "" {
		if goos == "darwin" {
			home := getenv("HOME")
			if home == "" {
				return "", errors.New("HOME is not set")
			}
			base = filepath.Join(home, "Library", "Application Support")
		} else {
			base = "/var/local"
		}
	}
	path := filepath.Join(base, channel, "User", file)

	// /var/local is rarely writable on linux; fall back to ~/.config.
	if goos == "linux" && !exists(path) {
		homeDir := r.HomeDir
		if homeDir == nil {
			homeDir = os.UserHomeDir
		}
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".config", channel, "User", file)
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
