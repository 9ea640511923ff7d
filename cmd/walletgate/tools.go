package main

import (
	"fmt"
	"strings"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/service"
	"github.com/spf13/cobra"
)

func newNonceCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <public-key>",
		Short: "Print the nonce a wallet has to sign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}

			sec, err := loadSecret(cfg, logger)
			if err != nil {
				return err
			}

			nonce, err := service.NewNonceDeriver(sec.NonceKey(), logger).Derive(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), nonce)
			return nil
		},
	}
}

func newKeygenCmd() *cobra.Command {
	var schemeName string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a wallet keypair for testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := wallet.ParseScheme(schemeName)
			if err != nil {
				return err
			}

			kp, err := wallet.GenerateKey(scheme)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scheme:  %s\n", kp.Scheme)
			fmt.Fprintf(out, "public:  %s\n", kp.PublicKey)
			fmt.Fprintf(out, "private: %s\n", kp.PrivateKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&schemeName, "scheme", "solana", `key scheme ("solana", "ethereum")`)
	return cmd
}

func newSignCmd() *cobra.Command {
	var (
		privateKey string
		schemeName string
	)

	cmd := &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a nonce with a private key from keygen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme := core.SchemeSolana
			if strings.HasPrefix(privateKey, "0x") {
				scheme = core.SchemeEthereum
			}
			if schemeName != "" {
				var err error
				if scheme, err = wallet.ParseScheme(schemeName); err != nil {
					return err
				}
			}

			sig, err := wallet.Sign(scheme, privateKey, []byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}

	cmd.Flags().StringVar(&privateKey, "key", "", "private key text")
	cmd.Flags().StringVar(&schemeName, "scheme", "", "key scheme, inferred from the key when empty")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
