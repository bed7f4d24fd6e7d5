package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/policy"
	"github.com/codefionn/execguard/internal/sandbox"
)

// SandboxSettings mirrors policy.SandboxPolicy plus the selector switches,
// in the loose form users write by hand.
type SandboxSettings struct {
	Mode                string   `json:"mode" yaml:"mode"` // read-only, workspace-write, danger-full-access
	WritableRoots       []string `json:"writable_roots,omitempty" yaml:"writable_roots,omitempty"`
	NetworkAccess       bool     `json:"network_access" yaml:"network_access"`
	ExcludeTmpdirEnvVar bool     `json:"exclude_tmpdir_env_var" yaml:"exclude_tmpdir_env_var"`
	ExcludeSlashTmp     bool     `json:"exclude_slash_tmp" yaml:"exclude_slash_tmp"`
	Disable             bool     `json:"disable" yaml:"disable"`                 // never select an OS sandbox
	WindowsSandbox      bool     `json:"windows_sandbox" yaml:"windows_sandbox"` // opt in to the restricted-token sandbox
}

// Config is the policy context the CLI evaluates requests in.
type Config struct {
	ApprovalPolicy  string          `json:"approval_policy" yaml:"approval_policy"` // untrusted, on-failure, on-request, never
	Sandbox         SandboxSettings `json:"sandbox" yaml:"sandbox"`
	ReadableFolders []string        `json:"readable_folders,omitempty" yaml:"readable_folders,omitempty"`
	LogLevel        string          `json:"log_level" yaml:"log_level"` // debug, info, warn, error, none
	LogPath         string          `json:"log_path,omitempty" yaml:"log_path,omitempty"`
}

const appName = "execguard"

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

// DefaultConfig returns the configuration used when no file exists: ask for
// anything uncontained, write only inside the workspace.
func DefaultConfig() *Config {
	return &Config{
		ApprovalPolicy: policy.OnRequest.String(),
		Sandbox: SandboxSettings{
			Mode: policy.ModeWorkspaceWrite.String(),
		},
		LogLevel: "info",
	}
}

// GetConfigPath returns the config file path, honouring EXECGUARD_CONFIG.
func GetConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("EXECGUARD_CONFIG")); override != "" {
		return override
	}
	return filepath.Join(defaultConfigDir(), "config.json")
}

// Load reads the configuration at path on top of the defaults. A missing file
// yields the defaults. Files ending in .yaml or .yml are parsed as YAML; all
// others as JSON, where comments and trailing commas are tolerated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.decode(path, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the enumerated fields without touching the filesystem.
func (c *Config) Validate() error {
	if _, err := c.Approval(); err != nil {
		return err
	}
	if _, err := policy.ParseSandboxMode(c.Sandbox.Mode); err != nil {
		return err
	}
	return nil
}

// Save writes the configuration as indented JSON, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Approval returns the parsed approval policy.
func (c *Config) Approval() (policy.ApprovalPolicy, error) {
	return policy.ParseApprovalPolicy(c.ApprovalPolicy)
}

// SandboxConfig returns the selector switches.
func (c *Config) SandboxConfig() sandbox.Config {
	return sandbox.Config{
		Disabled:       c.Sandbox.Disable,
		WindowsSandbox: c.Sandbox.WindowsSandbox,
	}
}

// SandboxPolicy builds the sandbox policy, resolving relative writable roots
// against cwd and expanding a leading "~".
func (c *Config) SandboxPolicy(cwd fspath.AbsolutePath) (policy.SandboxPolicy, error) {
	mode, err := policy.ParseSandboxMode(c.Sandbox.Mode)
	if err != nil {
		return policy.SandboxPolicy{}, err
	}

	switch mode {
	case policy.ModeReadOnly:
		return policy.ReadOnly(), nil
	case policy.ModeDangerFullAccess:
		return policy.DangerFullAccess(), nil
	}

	roots, err := resolveAll(cwd, c.Sandbox.WritableRoots)
	if err != nil {
		return policy.SandboxPolicy{}, fmt.Errorf("writable_roots: %w", err)
	}
	return policy.WorkspaceWrite(policy.WorkspaceWriteOptions{
		WritableRoots:       roots,
		NetworkAccess:       c.Sandbox.NetworkAccess,
		ExcludeTmpdirEnvVar: c.Sandbox.ExcludeTmpdirEnvVar,
		ExcludeSlashTmp:     c.Sandbox.ExcludeSlashTmp,
	}), nil
}

// ReadableRoots returns the folders commands may read, defaulting to cwd.
func (c *Config) ReadableRoots(cwd fspath.AbsolutePath) ([]fspath.AbsolutePath, error) {
	if len(c.ReadableFolders) == 0 {
		return []fspath.AbsolutePath{cwd}, nil
	}
	roots, err := resolveAll(cwd, c.ReadableFolders)
	if err != nil {
		return nil, fmt.Errorf("readable_folders: %w", err)
	}
	return roots, nil
}

func resolveAll(cwd fspath.AbsolutePath, paths []string) ([]fspath.AbsolutePath, error) {
	out := make([]fspath.AbsolutePath, 0, len(paths))
	for _, p := range paths {
		resolved, err := fspath.Resolve(&cwd, expandHome(p))
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return p
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
}
