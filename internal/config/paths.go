package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".assistant"

// Paths holds resolved filesystem paths for assistant data.
type Paths struct {
	Base        string // ~/.assistant
	Config      string // ~/.assistant/config.yaml
	Credentials string // ~/.assistant/credentials
	Data        string // ~/.assistant/data
	Transcripts string // ~/.assistant/data/transcripts.db
	GmailToken  string // ~/.assistant/credentials/gmail-token.json
}

// ResolvePaths computes all standard paths from the home directory.
// If ASSISTANT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ASSISTANT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}
	return PathsAt(base), nil
}

// PathsAt lays out the standard paths under base.
func PathsAt(base string) Paths {
	creds := filepath.Join(base, "credentials")
	data := filepath.Join(base, "data")
	return Paths{
		Base:        base,
		Config:      filepath.Join(base, "config.yaml"),
		Credentials: creds,
		Data:        data,
		Transcripts: filepath.Join(data, "transcripts.db"),
		GmailToken:  filepath.Join(creds, "gmail-token.json"),
	}
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Credentials, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
