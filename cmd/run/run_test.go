package run

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mirrorsync/mirrorsync/pkg/config"
	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

func TestResolveOptions(t *testing.T) {
	userConfig := config.User{
		Source:      "/cfg/src",
		Destination: "/cfg/dst",
		LogDir:      "/cfg/logs",
		Console:     true,
	}

	tests := []struct {
		name       string
		opts       options
		userConfig config.User
		exp        options
		expError   bool
	}{
		{
			name: "FlagsWin",
			opts: options{
				source:      "/flag/src",
				destination: "/flag/dst",
				logDir:      "/flag/logs",
			},
			userConfig: userConfig,
			exp: options{
				source:      "/flag/src",
				destination: "/flag/dst",
				logDir:      "/flag/logs",
			},
		},
		{
			name: "ConfigFillsGaps",
			opts: options{
				source: "/flag/src",
			},
			userConfig: userConfig,
			exp: options{
				source:      "/flag/src",
				destination: "/cfg/dst",
				logDir:      "/cfg/logs",
				console:     true,
			},
		},
		{
			name: "MissingEverywhere",
			opts: options{
				source:      "/flag/src",
				destination: "/flag/dst",
			},
			userConfig: config.User{},
			expError:   true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			parseUserConfig = func() (config.User, error) {
				return test.userConfig, nil
			}

			actual, err := resolveOptions(test.opts)
			if test.expError {
				assert.IsType(t, errors.MissingFieldError{}, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.exp, actual)
		})
	}
}

func TestPrepareRoots(t *testing.T) {
	fs = afero.NewMemMapFs()

	assert.NoError(t, fs.MkdirAll("/src", 0755))
	opts := options{
		source:      "/src",
		destination: "/dst",
		logDir:      "/logs",
	}
	assert.NoError(t, prepareRoots(opts))

	for _, path := range []string{"/dst", "/logs"} {
		exists, err := afero.DirExists(fs, path)
		assert.NoError(t, err)
		assert.True(t, exists, path)
	}
}

func TestPrepareRootsMissingSource(t *testing.T) {
	fs = afero.NewMemMapFs()

	err := prepareRoots(options{
		source:      "/does-not-exist",
		destination: "/dst",
		logDir:      "/logs",
	})
	assert.IsType(t, errors.FriendlyError{}, err)
}

func TestPrepareRootsSourceNotDirectory(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/src", []byte("x"), 0644))

	err := prepareRoots(options{
		source:      "/src",
		destination: "/dst",
		logDir:      "/logs",
	})
	assert.IsType(t, errors.FriendlyError{}, err)
}

func TestRunEndToEnd(t *testing.T) {
	fs = afero.NewOsFs()
	clock = clockwork.NewFakeClockAt(
		time.Date(2023, 6, 1, 12, 30, 45, 0, time.UTC))
	var console bytes.Buffer
	stdout = &console

	srcDir := t.TempDir()
	dstDir := t.TempDir()
	logDir := filepath.Join(t.TempDir(), "logs")

	modTime := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.NoError(t, os.MkdirAll(filepath.Join(srcDir, "a"), 0755))
	srcFile := filepath.Join(srcDir, "a", "x.txt")
	assert.NoError(t, os.WriteFile(srcFile, []byte("0123456789"), 0644))
	assert.NoError(t, os.Chtimes(srcFile, modTime, modTime))

	// A stale destination file should be removed by the run.
	staleFile := filepath.Join(dstDir, "old.txt")
	assert.NoError(t, os.WriteFile(staleFile, []byte("stale"), 0644))

	opts := options{
		source:      srcDir,
		destination: dstDir,
		logDir:      logDir,
		console:     true,
	}
	assert.NoError(t, run(opts))

	contents, err := os.ReadFile(filepath.Join(dstDir, "a", "x.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "0123456789", string(contents))

	_, err = os.Stat(staleFile)
	assert.True(t, os.IsNotExist(err))

	logContents, err := os.ReadFile(
		filepath.Join(logDir, "mirror-20230601-123045.log"))
	assert.NoError(t, err)
	assert.Contains(t, string(logContents), "Run complete")
	assert.Contains(t, console.String(), "Run complete")

	// A second run has nothing left to do.
	console.Reset()
	assert.NoError(t, run(opts))
	assert.Contains(t, console.String(), "Nothing to do")
}
