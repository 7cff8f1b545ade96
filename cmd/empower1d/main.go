package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/config"
	"empower1.com/empower1blockchain/internal/node"
	"empower1.com/empower1blockchain/internal/wallet"
)

var configPath string

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "empower1d",
		Short: "empower1d runs and inspects an EmPower1 validator node",
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFileName, "path to the node's TOML config file")

	root.AddCommand(newStartCommand())
	root.AddCommand(newWalletCommand())
	return root
}

func buildLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

// bootstrapNode loads config and wallet from disk and constructs a Node
// around them: config, then wallet, then the chain itself (lazily, inside
// node.Bootstrap).
func bootstrapNode(log *zap.SugaredLogger) (*node.Node, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", configPath, err)
	}

	w, nextNonce, err := wallet.LoadOrGenerate(cfg.Wallet.WalletFile, cfg.Wallet.WalletFileVersion)
	if err != nil {
		return nil, fmt.Errorf("loading wallet %q: %w", cfg.Wallet.WalletFile, err)
	}
	log.Infow("wallet loaded", "address", addresscodec.EncodeAddress(w.Address()))

	return node.New(cfg, w, cfg.Wallet.WalletFile, nextNonce, log), nil
}

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "start the node: bootstrap peers/genesis, sync, then run steady state",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger()
			defer log.Sync() //nolint:errcheck

			n, err := bootstrapNode(log)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := n.Bootstrap(ctx); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			log.Infow("node bootstrapped", "block_height", n.Ledger().BlockHeight())

			return runSteadyState(ctx, n, log)
		},
	}
}

// runSteadyState periodically attempts local block proposal (a no-op when
// it is not this node's turn) until an OS interrupt/term signal arrives.
func runSteadyState(ctx context.Context, n *node.Node, log *zap.SugaredLogger) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	log.Infow("node running, press Ctrl+C to stop")
	for {
		select {
		case <-ticker.C:
			block, err := n.MaybePropose(ctx)
			if err != nil {
				log.Warnw("local block proposal failed", "error", err)
				continue
			}
			if block != nil {
				log.Infow("proposed block", "block_height", n.Ledger().BlockHeight())
			}
		case sig := <-shutdown:
			log.Infow("caught signal, shutting down", "signal", sig.String())
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func newWalletCommand() *cobra.Command {
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "inspect the local wallet",
	}
	walletCmd.AddCommand(newWalletAddressCommand())
	walletCmd.AddCommand(newWalletBalanceCommand())
	return walletCmd
}

func newWalletAddressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "print the local wallet's address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			w, _, err := wallet.LoadOrGenerate(cfg.Wallet.WalletFile, cfg.Wallet.WalletFileVersion)
			if err != nil {
				return err
			}
			fmt.Println(addresscodec.EncodeAddress(w.Address()))
			return nil
		},
	}
}

func newWalletBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "print the local wallet's balance as last observed by this node",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger()
			defer log.Sync() //nolint:errcheck

			n, err := bootstrapNode(log)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if err := n.Bootstrap(ctx); err != nil {
				return err
			}

			acc, ok := n.Ledger().Account(n.Wallet().Address())
			if !ok {
				fmt.Println(0)
				return nil
			}
			fmt.Println(acc.Balance)
			return nil
		},
	}
}
