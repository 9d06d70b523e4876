package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	PublicEnvFile  = "http-client.env.json"
	PrivateEnvFile = "http-client.private.env.json"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

type Environment struct {
	Name      string
	Variables map[string]any
}

// EnvironmentMap maps environment names to their variables, the layout of
// http-client.env.json.
type EnvironmentMap map[string]map[string]any

// ParseEnvFile reads an environment file. A missing file yields an empty map.
func ParseEnvFile(path string) (EnvironmentMap, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return EnvironmentMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}

	var result EnvironmentMap
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cannot decode env file %s: %w", path, err)
	}
	return result, nil
}

// LoadEnvironments merges the config environments with the public and private
// environment files in dir. Later sources override earlier ones per variable.
func LoadEnvironments(dir string, configEnvs map[string]map[string]any) (EnvironmentMap, error) {
	result := EnvironmentMap{}
	merge := func(src map[string]map[string]any) {
		for name, vars := range src {
			if result[name] == nil {
				result[name] = make(map[string]any)
			}
			for k, v := range vars {
				result[name][k] = v
			}
		}
	}

	merge(configEnvs)
	for _, file := range []string{PublicEnvFile, PrivateEnvFile} {
		envs, err := ParseEnvFile(filepath.Join(dir, file))
		if err != nil {
			return nil, err
		}
		merge(envs)
	}

	return result, nil
}

// LoadEnvironment returns the named environment. An empty name yields an
// empty environment; a name no source defines is an error.
func LoadEnvironment(dir, envName string, configEnvs map[string]map[string]any) (*Environment, error) {
	env := &Environment{
		Name:      envName,
		Variables: make(map[string]any),
	}
	if envName == "" {
		return env, nil
	}

	envs, err := LoadEnvironments(dir, configEnvs)
	if err != nil {
		return nil, err
	}

	vars, ok := envs[envName]
	if !ok {
		return nil, fmt.Errorf("%w %q (defined: %s)", ErrUnknownEnvironment, envName, strings.Join(envs.Names(), ", "))
	}
	for k, v := range vars {
		env.Variables[k] = v
	}

	return env, nil
}

func (m EnvironmentMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the process environment variables whose name starts
// with prefix, keyed by the rest of the name.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if name, found := strings.CutPrefix(key, prefix); found && name != "" {
			result[name] = value
		}
	}
	return result
}
