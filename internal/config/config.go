// Package config loads the node's TOML configuration file: wallet path,
// validator/staking preferences, and the peer list.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

// DefaultConfigFileName is used when no config path is given on the command
// line.
const DefaultConfigFileName = "empower1.toml"

// WalletConfig controls where and how the node's keypair is persisted.
type WalletConfig struct {
	WalletFile          string `toml:"wallet_file"`
	CompressedPublicKey bool   `toml:"compressed_public_key"`
	WalletFileVersion   uint64 `toml:"wallet_file_version"`
}

// ValidatorConfig controls whether this node attempts to stake and propose.
type ValidatorConfig struct {
	Enabled                bool   `toml:"enabled"`
	StakeAmount            uint64 `toml:"stake_amount"`
	ProposeWithoutCoinbase bool   `toml:"propose_without_coinbase"`
}

// NetworkConfig holds the peer_list entries ("host:port" strings) and the
// local_blockchain flag. The node does not read PeerList: Node.Bootstrap
// pings the peers already added to its peer set. LocalBlockchain forces a
// local genesis chain; a local genesis is also used when no peer answers.
type NetworkConfig struct {
	PeerList        []string `toml:"peer_list"`
	LocalBlockchain bool     `toml:"local_blockchain"`
}

// Config is the top-level node configuration.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Validator ValidatorConfig `toml:"validator"`
	Network   NetworkConfig   `toml:"network"`
}

// Default returns the configuration a brand-new node starts with when no
// config file is present: a wallet file in the working directory, staking
// disabled, and no peers (forcing a local genesis on first run).
func Default() Config {
	return Config{
		Wallet: WalletConfig{
			WalletFile:          "empower1.wallet",
			CompressedPublicKey: true,
			WalletFileVersion:   1,
		},
		Validator: ValidatorConfig{
			Enabled:                false,
			StakeAmount:            core.MinimumStakingAmount,
			ProposeWithoutCoinbase: false,
		},
		Network: NetworkConfig{
			LocalBlockchain: false,
		},
	}
}

// Load reads and parses a TOML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", path, internalerrors.ErrConfigInvalid)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", path, internalerrors.ErrConfigInvalid)
	}
	return cfg, nil
}

// LoadOrDefault loads the config at path, or returns Default() if the file
// does not exist.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
