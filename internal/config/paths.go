package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "NETWATCH_CONFIG"
	// ConfigFileName is the config file name looked up in the working directory
	ConfigFileName = "netwatch.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "netwatch"

	userConfigFile = "config.yaml"
)

// Source says how a config location was chosen
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceWorkDir Source = "workdir"
	SourceUser    Source = "user"
	SourceSystem  Source = "system"
)

// Candidate is one place a config file may live
type Candidate struct {
	Path   string
	Source Source
}

// Candidates lists config locations in priority order. An explicit path,
// normally from --config, is the only candidate when set: a missing file
// there is an error rather than a reason to keep looking.
func Candidates(explicit string) []Candidate {
	if explicit != "" {
		return []Candidate{{Path: explicit, Source: SourceFlag}}
	}

	var out []Candidate
	if path := os.Getenv(EnvConfigPath); path != "" {
		out = append(out, Candidate{Path: path, Source: SourceEnv})
	}
	out = append(out, Candidate{Path: ConfigFileName, Source: SourceWorkDir})
	for _, dir := range userConfigDirs() {
		out = append(out, Candidate{Path: filepath.Join(dir, ConfigDirName, userConfigFile), Source: SourceUser})
	}
	out = append(out, Candidate{Path: filepath.Join("/etc", ConfigDirName, userConfigFile), Source: SourceSystem})
	return out
}

// FindConfigPath returns the first existing candidate, or the explicit path
// as given. It returns "" when nothing is found.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	for _, c := range Candidates("") {
		if !fileExists(c.Path) {
			continue
		}
		if c.Source == SourceWorkDir {
			if abs, err := filepath.Abs(c.Path); err == nil {
				return abs
			}
		}
		return c.Path
	}
	return ""
}

// DefaultConfigPath returns where `config init` writes a new file: the user
// config directory, or the working directory when there is none
func DefaultConfigPath() string {
	if dirs := userConfigDirs(); len(dirs) > 0 {
		return filepath.Join(dirs[0], ConfigDirName, userConfigFile)
	}
	return ConfigFileName
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// userConfigDirs returns $XDG_CONFIG_HOME then ~/.config, without duplicates
func userConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, xdg)
	}
	if home := os.Getenv("HOME"); home != "" {
		def := filepath.Join(home, ".config")
		if len(dirs) == 0 || filepath.Clean(dirs[0]) != def {
			dirs = append(dirs, def)
		}
	}
	return dirs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
