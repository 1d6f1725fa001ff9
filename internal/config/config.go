package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jshelley/sidechat/internal/errors"
)

// SubmitKeyEnter submits on Enter and inserts a newline on Alt+Enter.
const SubmitKeyEnter = "enter"

// SubmitKeyModEnter submits on Alt+Enter and inserts a newline on Enter.
const SubmitKeyModEnter = "modifier+enter"

// Agent describes a responder personality the user can switch between.
type Agent struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	SupportsImages bool   `json:"supports_images"`
}

// Config holds the application configuration
type Config struct {
	Agents        []Agent `json:"agents"`
	ActiveAgentID string  `json:"active_agent_id,omitempty"`

	HostURL string `json:"host_url,omitempty"` // OpenAI-compatible endpoint
	APIKey  string `json:"api_key,omitempty"`

	NotesDir string `json:"notes_dir,omitempty"` // Directory scanned for @-mentions

	SubmitKey            string `json:"submit_key,omitempty"` // "enter" or "modifier+enter"
	NotificationsEnabled bool   `json:"notifications_enabled,omitempty"`

	mu       sync.RWMutex
	filePath string
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sidechat"), nil
}

// configPath returns the path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or creates a new one if it doesn't exist
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Agents:   []Agent{},
		filePath: path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.ensureInitialized()
		return cfg, nil
	}
	if err != nil {
		return nil, errors.ConfigLoadFailed(path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigLoadFailed(path, err)
	}

	// Ensure slices are initialized (not nil) after unmarshaling.
	// This must happen before Validate() since Validate() only reads.
	cfg.ensureInitialized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ensureInitialized ensures slices are initialized and defaults are applied.
//
// Thread-safety: NOT thread-safe; only call during single-threaded
// initialization, before the Config is shared across goroutines.
func (c *Config) ensureInitialized() {
	if c.Agents == nil {
		c.Agents = []Agent{}
	}
	if len(c.Agents) == 0 {
		c.Agents = []Agent{
			{ID: "assistant", Name: "Assistant", SupportsImages: true},
		}
	}
	if c.ActiveAgentID == "" {
		c.ActiveAgentID = c.Agents[0].ID
	}
	if c.SubmitKey == "" {
		c.SubmitKey = SubmitKeyEnter
	}
}

// Validate checks that the config is internally consistent.
// This is a read-only operation - call ensureInitialized() first if needed.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seenIDs := make(map[string]bool)
	for _, agent := range c.Agents {
		if agent.ID == "" {
			return errors.ConfigInvalid("agent with empty ID found")
		}
		if seenIDs[agent.ID] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate agent ID: %s", agent.ID))
		}
		seenIDs[agent.ID] = true

		if agent.Name == "" {
			return errors.ConfigInvalid(fmt.Sprintf("agent %s has empty name", agent.ID))
		}
	}

	if c.ActiveAgentID != "" && !seenIDs[c.ActiveAgentID] {
		return errors.ConfigInvalid(fmt.Sprintf("active agent %s not in agent list", c.ActiveAgentID))
	}

	if c.SubmitKey != "" && c.SubmitKey != SubmitKeyEnter && c.SubmitKey != SubmitKeyModEnter {
		return errors.ConfigInvalid(fmt.Sprintf("invalid submit key policy: %s", c.SubmitKey))
	}

	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir, err := configDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}

	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}
	return nil
}

// GetAgents returns a copy of the agent list
func (c *Config) GetAgents() []Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	agents := make([]Agent, len(c.Agents))
	copy(agents, c.Agents)
	return agents
}

// ActiveAgent returns the currently active agent.
// Falls back to the first agent if the active ID is stale.
func (c *Config) ActiveAgent() Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, a := range c.Agents {
		if a.ID == c.ActiveAgentID {
			return a
		}
	}
	if len(c.Agents) > 0 {
		return c.Agents[0]
	}
	return Agent{}
}

// SetActiveAgent switches the active agent.
// Returns false if the ID is not in the agent list.
func (c *Config) SetActiveAgent(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.Agents {
		if a.ID == id {
			c.ActiveAgentID = id
			return true
		}
	}
	return false
}

// GetSubmitKey returns the submit key policy
func (c *Config) GetSubmitKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.SubmitKey == "" {
		return SubmitKeyEnter
	}
	return c.SubmitKey
}

// SetSubmitKey updates the submit key policy
func (c *Config) SetSubmitKey(policy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SubmitKey = policy
}

// GetNotesDir returns the mention lookup directory
func (c *Config) GetNotesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotesDir
}

// SetNotesDir updates the mention lookup directory
func (c *Config) SetNotesDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotesDir = dir
}

// AreNotificationsEnabled returns whether desktop notifications are enabled
func (c *Config) AreNotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotificationsEnabled
}

// SetNotificationsEnabled toggles desktop notifications
func (c *Config) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotificationsEnabled = enabled
}

// GetHostURL returns the responder endpoint
func (c *Config) GetHostURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.HostURL
}

// GetAPIKey returns the responder API key
func (c *Config) GetAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.APIKey
}
