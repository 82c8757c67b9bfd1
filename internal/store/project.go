package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Project is a named local project: a root folder plus any other
// folders of a multi-root workspace.
type Project struct {
	Name     string   `json:"name" yaml:"name"`
	RootPath string   `json:"rootPath" yaml:"rootPath"`
	Paths    []string `json:"paths" yaml:"paths"`
	Group    string   `json:"group" yaml:"group"`

	// Extra holds keys the file carries that Project does not model.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var projectKeys = []string{"name", "rootPath", "paths", "group"}

type projectFields Project

// UnmarshalJSON decodes a project, keeping unknown keys in Extra.
func (p *Project) UnmarshalJSON(data []byte) error {
	var f projectFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Project(f)
	p.Extra = extraFields(data, projectKeys)
	return nil
}

// MarshalJSON encodes the modeled fields followed by Extra.
func (p Project) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(projectFields(p))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, p.Extra)
}

// RecordName returns the project name.
func (p Project) RecordName() string { return p.Name }

// Detail returns the root path.
func (p Project) Detail() string { return p.RootPath }

// NewProject returns a Project with no extra paths and no group.
func NewProject(name, rootPath string) Project {
	return Project{Name: name, RootPath: rootPath, Paths: []string{}}
}

func projectFromLegacy(e legacyEntry) Project {
	return NewProject(e.Label, e.Description)
}

// Projects is a store of Project records with path editing.
type Projects struct {
	*Store[Project]
}

// OpenProjects resolves the settings path and returns a store for it.
// A missing file is created empty.
func OpenProjects(pp PathProvider, log *zap.Logger) (*Projects, error) {
	s, err := newStore(pp, projectFromLegacy, log)
	if err != nil {
		return nil, err
	}
	if !s.exists() {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("creating settings dir: %w", err)
		}
		if err := os.WriteFile(s.path, nil, 0o600); err != nil {
			return nil, fmt.Errorf("creating settings file: %w", err)
		}
	}
	return &Projects{Store: s}, nil
}

// AddPath appends path to the named project. Unknown names are ignored.
func (p *Projects) AddPath(name, path string) {
	i := p.index(name)
	if i < 0 {
		return
	}
	p.items[i].Paths = append(p.items[i].Paths, path)
}

// RemovePath drops the first path equal to path, ignoring case.
func (p *Projects) RemovePath(name, path string) {
	i := p.index(name)
	if i < 0 {
		return
	}
	paths := p.items[i].Paths
	j := slices.IndexFunc(paths, func(s string) bool {
		return strings.EqualFold(s, path)
	})
	if j < 0 {
		return
	}
	p.items[i].Paths = slices.Delete(paths, j, j+1)
}

// UpdateRootPath overwrites the named project's root path.
func (p *Projects) UpdateRootPath(name, path string) {
	if i := p.index(name); i >= 0 {
		p.items[i].RootPath = path
	}
}
