// wormgate provisions and tears down the two-node VPN topology.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wormgate/wormgate/ansible"
	"github.com/wormgate/wormgate/backend"
	"github.com/wormgate/wormgate/config"
	"github.com/wormgate/wormgate/dns"
	"github.com/wormgate/wormgate/nodeinit"
	"github.com/wormgate/wormgate/remote"
	"github.com/wormgate/wormgate/workflow"
)

// buildController wires the real dependency graph from the configuration
func buildController(cfg *config.Config) (*workflow.Controller, error) {
	registrar, err := dns.NewCloudflare(cfg.CloudflareEmail, cfg.CloudflareAPIKey, cfg.CloudflareZoneID)
	if err != nil {
		return nil, err
	}

	executor := &backend.NativeExecutor{ExtraEnv: cfg.Provider.Environ()}
	sshExecutor := remote.NewSSHExecutor(cfg.SSH.KeyPath)

	deps := &workflow.Deps{
		Config:       cfg,
		Orchestrator: backend.NewOrchestratorCLI(cfg.OrchestratorBin, executor),
		Infra:        backend.NewTerraformCLI(cfg.TerraformBin, cfg.TerraformDir, executor),
		Initializer: nodeinit.New(sshExecutor,
			nodeinit.WithWormholeUser(cfg.SSH.WormholeUser)),
		Registrar:    registrar,
		Keys:         sshExecutor,
		Configurator: ansible.New(cfg.InventoryPath, cfg.PlaybookPath, executor),
	}
	return workflow.NewController(deps), nil
}

// loadConfig resolves and validates the configuration for the working directory
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wormgate",
		Short: "Two-node VPN topology provisioner",
		Long:  "Provisions a wormhole and a stargate node, registers DNS and hands the topology to configuration management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("expected a command: up or down")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the full topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			controller, err := buildController(cfg)
			if err != nil {
				return err
			}
			return controller.Up(context.Background())
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Destroy the full topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			controller, err := buildController(cfg)
			if err != nil {
				return err
			}
			return controller.Down(context.Background())
		},
	}

	rootCmd.AddCommand(upCmd, downCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Subprocess exit codes propagate when the failure carries one.
		if code := backend.ExitCode(err); code > 0 {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
