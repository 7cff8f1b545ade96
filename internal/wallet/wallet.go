// Package wallet holds a node operator's secp256k1 keypair, derives the
// operator's address, signs transactions and blocks, and persists the
// keypair plus the next nonce to a small on-disk wallet file.
package wallet

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

// Wallet holds a single keypair and the derived address. It is not safe for
// concurrent use by multiple goroutines without external synchronization —
// a node has exactly one local wallet.
type Wallet struct {
	privKey *secp256k1.PrivateKey
	pubKey  core.PublicKey
	address core.Address
}

// Generate creates a fresh random keypair.
func Generate() (*Wallet, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", internalerrors.ErrSignatureFailed)
	}
	return fromPrivateKey(priv), nil
}

func fromPrivateKey(priv *secp256k1.PrivateKey) *Wallet {
	var pub core.PublicKey
	copy(pub[:], priv.PubKey().SerializeCompressed())
	return &Wallet{
		privKey: priv,
		pubKey:  pub,
		address: addresscodec.DeriveAddress(pub),
	}
}

// PublicKey returns the wallet's compressed secp256k1 public key.
func (w *Wallet) PublicKey() core.PublicKey { return w.pubKey }

// Address returns the wallet's derived Base58Check address.
func (w *Wallet) Address() core.Address { return w.address }

// Sign signs a digest (a transaction's TxSigningHash, or a block's
// HashHeader) with the wallet's private key, producing a DER-encoded
// ECDSA signature.
func (w *Wallet) Sign(hash core.Hash) ([]byte, error) {
	sig := ecdsa.Sign(w.privKey, hash[:])
	return sig.Serialize(), nil
}

// SignTransaction computes tx's signing hash and attaches the signature.
func (w *Wallet) SignTransaction(tx *core.Transaction) error {
	sig, err := w.Sign(codec.TxSigningHash(tx))
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

// SignBlockHeader signs a block header's hash, for block proposal.
func (w *Wallet) SignBlockHeader(header *core.BlockHeader) ([]byte, error) {
	return w.Sign(codec.HashHeader(header))
}

// walletFileLineCount is the number of meaningful lines a wallet file holds:
// the wallet-file format version, the WIF-encoded private key, and the
// decimal next-nonce. Simple and line-oriented rather than a binary format.
const walletFileLineCount = 3

// Save writes the wallet-file version, the wallet's WIF-encoded private key,
// and nextNonce to path, creating or truncating it. File mode 0600 since it
// holds a private key.
func (w *Wallet) Save(path string, nextNonce, version uint64) error {
	wif := addresscodec.EncodeWIF([32]byte(w.privKey.Serialize()), true)
	contents := fmt.Sprintf("%d\n%s\n%d\n", version, wif, nextNonce)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing wallet file %q: %w", path, internalerrors.ErrWalletFileInvalid)
	}
	return nil
}

// Load reads a wallet file written by Save, returning the wallet, the
// persisted next-nonce, and the wallet-file version it was written with.
func Load(path string) (*Wallet, uint64, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening wallet file %q: %w", path, internalerrors.ErrWalletFileInvalid)
	}
	defer f.Close()

	lines := make([]string, 0, walletFileLineCount)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < walletFileLineCount {
		return nil, 0, 0, fmt.Errorf("wallet file %q: expected %d lines: %w", path, walletFileLineCount, internalerrors.ErrWalletFileInvalid)
	}

	version, err := strconv.ParseUint(lines[0], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wallet file %q: bad version line: %w", path, internalerrors.ErrWalletFileInvalid)
	}

	privBytes, _, err := addresscodec.DecodeWIF(lines[1])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wallet file %q: %w", path, err)
	}
	priv := secp256k1.PrivKeyFromBytes(privBytes[:])

	nonce, err := strconv.ParseUint(lines[2], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wallet file %q: bad nonce line: %w", path, internalerrors.ErrWalletFileInvalid)
	}

	return fromPrivateKey(priv), nonce, version, nil
}

// LoadOrGenerate loads the wallet at path, or generates and saves a fresh
// one — stamped with version — if the file does not exist yet, the
// first-run path for a new node.
func LoadOrGenerate(path string, version uint64) (*Wallet, uint64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		w, err := Generate()
		if err != nil {
			return nil, 0, err
		}
		if err := w.Save(path, 0, version); err != nil {
			return nil, 0, err
		}
		return w, 0, nil
	}
	w, nonce, _, err := Load(path)
	if err != nil {
		return nil, 0, err
	}
	return w, nonce, nil
}
