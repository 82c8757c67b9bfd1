package store

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Session is a remote connection record.
type Session struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	RemotePath     string `json:"remote_path" yaml:"remote_path"`
	ConnectTimeout int    `json:"connect_timeout" yaml:"connect_timeout"`
	LocalPath      string `json:"localpath" yaml:"localpath"`

	// Extra holds keys the file carries that Session does not model.
	// They are written back unchanged on save.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var sessionKeys = []string{
	"name", "type", "host", "port", "username", "password",
	"remote_path", "connect_timeout", "localpath",
}

// sessionFields has Session's layout without its JSON methods.
type sessionFields Session

// UnmarshalJSON decodes a session, accepting quoted numbers for port
// and connect_timeout and keeping unknown keys in Extra.
func (s *Session) UnmarshalJSON(data []byte) error {
	var w struct {
		sessionFields
		Port           flexInt `json:"port"`
		ConnectTimeout flexInt `json:"connect_timeout"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Session(w.sessionFields)
	s.Port = int(w.Port)
	s.ConnectTimeout = int(w.ConnectTimeout)
	s.Extra = extraFields(data, sessionKeys)
	return nil
}

// MarshalJSON encodes the modeled fields followed by Extra.
func (s Session) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(sessionFields(s))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, s.Extra)
}

// RecordName returns the session name.
func (s Session) RecordName() string { return s.Name }

// Detail returns the host.
func (s Session) Detail() string { return s.Host }

// SampleSession is written to a fresh settings file so users have a
// template to copy.
var SampleSession = Session{
	Name:           "name",
	Type:           "type",
	Host:           "host",
	Port:           21,
	Username:       "username",
	Password:       "password",
	RemotePath:     "remote_path",
	ConnectTimeout: 30,
	LocalPath:      "localpath",
}

func sessionFromLegacy(e legacyEntry) Session {
	return Session{Name: e.Label, Host: e.Description}
}

// Sessions is a store of Session records.
type Sessions = Store[Session]

// OpenSessions resolves the settings path and returns a store for it.
// If the file does not exist yet it is created holding SampleSession.
// The file is not read; call Load for that.
func OpenSessions(pp PathProvider, log *zap.Logger) (*Sessions, error) {
	s, err := newStore(pp, sessionFromLegacy, log)
	if err != nil {
		return nil, err
	}
	if !s.exists() {
		s.Add(SampleSession)
		if err := s.Save(); err != nil {
			return nil, err
		}
		s.log.Info("created settings file with sample session")
	}
	return s, nil
}
