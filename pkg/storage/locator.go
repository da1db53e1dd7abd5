package storage

import (
	"os"
	"path/filepath"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
)

// downloadsDirName is the root folder created under the resolved base.
const downloadsDirName = "downloads"

// Locator resolves the writable base directory for downloaded assets.
// Write-restricted serverless runtimes only allow the temp dir, so the
// serverless flag switches the root there.
type Locator struct {
	baseOverride string
	serverless   bool
}

// NewLocator creates a Locator. baseOverride, when non-empty, wins over
// both resolution branches.
func NewLocator(baseOverride string, serverless bool) *Locator {
	return &Locator{baseOverride: baseOverride, serverless: serverless}
}

// Serverless reports whether the locator runs in URL-only mode territory.
func (l *Locator) Serverless() bool {
	return l.serverless
}

// BaseDir returns the storage root, creating it if absent. Creation failure
// surfaces as a storage error.
func (l *Locator) BaseDir() (string, error) {
	dir := l.baseOverride
	if dir == "" {
		if l.serverless {
			dir = filepath.Join(os.TempDir(), downloadsDirName)
		} else {
			wd, err := os.Getwd()
			if err != nil {
				return "", errs.Wrap(errs.ErrorTypeStorage, "failed to resolve working directory", err)
			}
			dir = filepath.Join(wd, downloadsDirName)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeStorage, "failed to create storage root", err)
	}
	return dir, nil
}
