package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

const (
	// UserConfigPath is the default path to the mirrorsync user config.
	UserConfigPath = "~/.mirrorsync.yaml"

	// InitialUserConfigVersion is the first version of the mirrorsync user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the mirrorsync
	// user config of the current binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the persistent defaults for mirror runs. Command line flags
// take precedence over all of these.
type User struct {
	Version string `json:"version,omitempty"`

	// Source is the root of the tree to mirror from.
	Source string `json:"source"`

	// Destination is the root of the tree that's made to match Source.
	Destination string `json:"destination"`

	// LogDir is the directory run logs are written into.
	LogDir string `json:"logDir"`

	// Console controls whether per-item outcomes are echoed to the console
	// in addition to the log file.
	Console bool `json:"console,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The mirrorsync user config "+
				"file doesn't exist at %q. Please run `mirrorsync config` to "+
				"create it, or pass the paths as flags.", path)
		}
		return User{}, errors.WithContext(err, "parse")
	}

	for _, field := range []*string{&config.Source, &config.Destination, &config.LogDir} {
		if *field == "" {
			continue
		}

		expanded, err := homedir.Expand(*field)
		if err != nil {
			return User{}, errors.WithContext(err, "expand path")
		}

		// Evaluate relative paths relative to the config path.
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(filepath.Dir(path), expanded)
		}
		*field = expanded
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the expanded path to the user config file.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
