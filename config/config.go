// Package config builds the immutable runtime configuration for the
// provisioning workflow. Everything is resolved once at startup: defaults,
// then the optional settings file, then the environment. Components receive
// the resulting struct and never consult the environment themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wormgate/wormgate/errors"
)

// Default locations and binary names, overridable via the settings file.
const (
	DefaultSettingsFile = "wormgate.yaml"
	DefaultEnvFile      = ".env"
)

// SSHConfig holds the local SSH identity used for node initialization
type SSHConfig struct {
	// KeyPath is the private key used to reach freshly created nodes
	KeyPath string `yaml:"key_path"`

	// PublicKeyPath is pushed to the wormhole's unprivileged account before
	// hardening; empty disables the push
	PublicKeyPath string `yaml:"public_key_path"`

	// WormholeUser is the unprivileged login on the wormhole node
	WormholeUser string `yaml:"wormhole_user"`
}

// ProviderConfig carries the IaaS credentials handed to the declarative
// infrastructure subprocess via its environment
type ProviderConfig struct {
	Username string
	Tenant   string
	Password string
	AuthURL  string
	Region   string
}

// Environ renders the credentials as KEY=VALUE pairs for a subprocess
func (p ProviderConfig) Environ() []string {
	return []string{
		"OS_USERNAME=" + p.Username,
		"OS_TENANT_NAME=" + p.Tenant,
		"OS_PASSWORD=" + p.Password,
		"OS_AUTH_URL=" + p.AuthURL,
		"OS_REGION_NAME=" + p.Region,
	}
}

// Config is the immutable runtime configuration
type Config struct {
	// Domain is the DNS name registered for the wormhole node
	Domain string `yaml:"-"`

	// Cloudflare credentials for DNS registration
	CloudflareEmail  string `yaml:"-"`
	CloudflareAPIKey string `yaml:"-"`
	CloudflareZoneID string `yaml:"-"`

	// OrchestratorBin is the orchestration CLI driving the wormhole backend
	OrchestratorBin string `yaml:"orchestrator_bin"`

	// TerraformBin and TerraformDir drive the stargate backend
	TerraformBin string `yaml:"terraform_bin"`
	TerraformDir string `yaml:"terraform_dir"`

	// AddressOutput is the terraform output holding the stargate address
	AddressOutput string `yaml:"address_output"`

	// InventoryPath is the configuration-management host registry
	InventoryPath string `yaml:"inventory_path"`

	// PlaybookPath is handed to ansible-playbook after bring-up
	PlaybookPath string `yaml:"playbook_path"`

	SSH      SSHConfig      `yaml:"ssh"`
	Provider ProviderConfig `yaml:"-"`
}

// Load assembles the configuration from defaults, the optional settings file,
// the optional .env file and the process environment. Both files are looked
// up relative to dir.
func Load(dir string) (*Config, error) {
	if err := sourceEnvFile(filepath.Join(dir, DefaultEnvFile)); err != nil {
		return nil, err
	}

	cfg := &Config{
		OrchestratorBin: "iaas",
		TerraformBin:    "terraform",
		TerraformDir:    filepath.Join(dir, "terraform"),
		AddressOutput:   "public_address",
		InventoryPath:   filepath.Join(dir, "hosts"),
		PlaybookPath:    filepath.Join(dir, "site.yml"),
		SSH: SSHConfig{
			KeyPath:      filepath.Join(os.Getenv("HOME"), ".ssh", "id_ed25519"),
			WormholeUser: "debian",
		},
	}

	settings := filepath.Join(dir, DefaultSettingsFile)
	if data, err := os.ReadFile(settings); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfiguration,
				fmt.Sprintf("failed to parse settings file %s", settings))
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to read settings file %s", settings))
	}

	cfg.Domain = os.Getenv("DOMAIN")
	cfg.CloudflareEmail = os.Getenv("CLOUDFLARE_EMAIL")
	cfg.CloudflareAPIKey = os.Getenv("CLOUDFLARE_API_KEY")
	cfg.CloudflareZoneID = os.Getenv("ZONE_ID")
	cfg.Provider = ProviderConfig{
		Username: os.Getenv("OS_USERNAME"),
		Tenant:   os.Getenv("OS_TENANT_NAME"),
		Password: os.Getenv("OS_PASSWORD"),
		AuthURL:  os.Getenv("OS_AUTH_URL"),
		Region:   os.Getenv("OS_REGION_NAME"),
	}

	return cfg, nil
}

// Validate reports the first missing required input
func (c *Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Domain, "DOMAIN"},
		{c.CloudflareEmail, "CLOUDFLARE_EMAIL"},
		{c.CloudflareAPIKey, "CLOUDFLARE_API_KEY"},
		{c.CloudflareZoneID, "ZONE_ID"},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.New(errors.ErrConfiguration,
				fmt.Sprintf("environment variable %s is not set", r.name))
		}
	}

	if c.SSH.KeyPath == "" {
		return errors.New(errors.ErrConfiguration, "ssh.key_path is not set")
	}
	return nil
}
