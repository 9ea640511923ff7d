package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/layer-3/walletgate/internal/config"
	"github.com/layer-3/walletgate/internal/logging"
	"github.com/layer-3/walletgate/internal/secret"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "walletgate",
		Short: "Walletgate issues credentials to wallets that prove key possession.",
		Long: `Walletgate authenticates Solana and Ethereum wallets with a
challenge/response handshake: the wallet signs a nonce derived from its
public key and receives a 24 hour bearer credential in exchange.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./walletgate.yaml)")
	config.RegisterFlags(cmd)

	load := func(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(cmd, cfgFile)
		if err != nil {
			return nil, nil, err
		}
		logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
		return cfg, logger, nil
	}

	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newNonceCmd(load))
	cmd.AddCommand(newKeygenCmd())
	cmd.AddCommand(newSignCmd())

	return cmd
}

type loader func(cmd *cobra.Command) (*config.Config, *slog.Logger, error)

// loadSecret builds the server secret, falling back to the public default
func loadSecret(cfg *config.Config, logger *slog.Logger) (*secret.Secret, error) {
	root := cfg.Auth.Secret
	if root == "" {
		logger.Warn("no secret configured, falling back to the default salt which is insecure")
		root = secret.DefaultRoot
	}

	s, err := secret.New([]byte(root), cfg.Auth.SplitKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret: %w", err)
	}
	logger.Debug("secret loaded", "secret", s, "split", s.Split())
	return s, nil
}
