// Package codec implements the deterministic, big-endian, fixed-width
// serialization used for hashing, signing, and wire-adjacent canonical forms
// of transactions, block headers, and blocks. The scheme must stay
// byte-stable: block hashes and signatures depend on it, and the canonical
// genesis block is a byte literal that must round-trip exactly.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

const signatureSize = 64

// txMetadataSize is version(1) + amount(8) + fee(8) + recipient(39) + nonce(8).
const txMetadataSize = 1 + 8 + 8 + core.AddressSize + 8

// transactionSize is txMetadataSize + sender(33) + signature(64).
const transactionSize = txMetadataSize + core.PublicKeySize + signatureSize

// headerSize is version(4) + prevHash(32) + merkleRoot(32) + timestamp(8).
const headerSize = 4 + 32 + 32 + 8

// TxMetadataBytes returns the canonical projection a transaction's signature
// covers: version, amount, fee, recipient, nonce — excluding sender and
// signature themselves.
func TxMetadataBytes(tx *core.Transaction) []byte {
	buf := make([]byte, 0, txMetadataSize)
	buf = append(buf, tx.Version)
	buf = binary.BigEndian.AppendUint64(buf, tx.Amount)
	buf = binary.BigEndian.AppendUint64(buf, tx.Fee)
	buf = append(buf, tx.Recipient[:]...)
	buf = binary.BigEndian.AppendUint64(buf, tx.Nonce)
	return buf
}

// TxSigningHash returns SHA-256(TxMetadataBytes(tx)), the digest signed and
// verified for every transaction.
func TxSigningHash(tx *core.Transaction) core.Hash {
	return sha256.Sum256(TxMetadataBytes(tx))
}

// EncodeTransaction serializes tx into its fixed-width wire form.
func EncodeTransaction(tx *core.Transaction) []byte {
	buf := make([]byte, 0, transactionSize)
	buf = append(buf, TxMetadataBytes(tx)[:txMetadataSize-8]...) // version, amount, fee, recipient
	buf = append(buf, tx.Sender[:]...)
	sig := make([]byte, signatureSize)
	copy(sig, tx.Signature)
	buf = append(buf, sig...)
	buf = binary.BigEndian.AppendUint64(buf, tx.Nonce)
	return buf
}

// DecodeTransaction parses the fixed-width wire form produced by
// EncodeTransaction. Fails with ErrMalformedBytes on truncation.
func DecodeTransaction(raw []byte) (*core.Transaction, error) {
	if len(raw) != transactionSize {
		return nil, fmt.Errorf("transaction: expected %d bytes, got %d: %w", transactionSize, len(raw), internalerrors.ErrMalformedBytes)
	}
	var tx core.Transaction
	r := bytes.NewReader(raw)

	var version uint8
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("transaction.version: %w", internalerrors.ErrMalformedBytes)
	}
	tx.Version = version

	if err := binary.Read(r, binary.BigEndian, &tx.Amount); err != nil {
		return nil, fmt.Errorf("transaction.amount: %w", internalerrors.ErrMalformedBytes)
	}
	if err := binary.Read(r, binary.BigEndian, &tx.Fee); err != nil {
		return nil, fmt.Errorf("transaction.fee: %w", internalerrors.ErrMalformedBytes)
	}
	if _, err := io.ReadFull(r, tx.Recipient[:]); err != nil {
		return nil, fmt.Errorf("transaction.recipient: %w", internalerrors.ErrMalformedBytes)
	}
	if _, err := io.ReadFull(r, tx.Sender[:]); err != nil {
		return nil, fmt.Errorf("transaction.sender: %w", internalerrors.ErrMalformedBytes)
	}
	sig := make([]byte, signatureSize)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("transaction.signature: %w", internalerrors.ErrMalformedBytes)
	}
	tx.Signature = sig
	if err := binary.Read(r, binary.BigEndian, &tx.Nonce); err != nil {
		return nil, fmt.Errorf("transaction.nonce: %w", internalerrors.ErrMalformedBytes)
	}
	return &tx, nil
}

// EncodeBlockHeader serializes a block header into its fixed-width wire form.
func EncodeBlockHeader(h *core.BlockHeader) []byte {
	buf := make([]byte, 0, headerSize)
	buf = binary.BigEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.PrevHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.BigEndian.AppendUint64(buf, h.Timestamp)
	return buf
}

// DecodeBlockHeader parses the fixed-width wire form produced by EncodeBlockHeader.
func DecodeBlockHeader(raw []byte) (*core.BlockHeader, error) {
	if len(raw) != headerSize {
		return nil, fmt.Errorf("block header: expected %d bytes, got %d: %w", headerSize, len(raw), internalerrors.ErrMalformedBytes)
	}
	var h core.BlockHeader
	r := bytes.NewReader(raw)
	if err := binary.Read(r, binary.BigEndian, &h.Version); err != nil {
		return nil, fmt.Errorf("header.version: %w", internalerrors.ErrMalformedBytes)
	}
	if _, err := io.ReadFull(r, h.PrevHash[:]); err != nil {
		return nil, fmt.Errorf("header.prevHash: %w", internalerrors.ErrMalformedBytes)
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return nil, fmt.Errorf("header.merkleRoot: %w", internalerrors.ErrMalformedBytes)
	}
	if err := binary.Read(r, binary.BigEndian, &h.Timestamp); err != nil {
		return nil, fmt.Errorf("header.timestamp: %w", internalerrors.ErrMalformedBytes)
	}
	return &h, nil
}

// HashHeader returns SHA-256(EncodeBlockHeader(h)) — the block hash.
func HashHeader(h *core.BlockHeader) core.Hash {
	return sha256.Sum256(EncodeBlockHeader(h))
}

// EncodeBlock serializes the canonical, signable form of a block: block_size,
// header, a u64 transaction count, and the transactions in order. The
// proposer signature is never part of this form — it is produced by signing
// HashHeader(header) and carried on core.Block.Signature out-of-band, the
// way the wire transport (protobuf, out of scope here) would carry it
// alongside the canonical bytes rather than folded into them. This keeps
// the canonical genesis byte literal, which predates the signature field
// entirely, round-tripping exactly.
func EncodeBlock(b *core.Block) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, b.BlockSize)
	buf.Write(EncodeBlockHeader(&b.Header))
	binary.Write(&buf, binary.BigEndian, uint64(len(b.Transactions)))
	for i := range b.Transactions {
		buf.Write(EncodeTransaction(&b.Transactions[i]))
	}
	return buf.Bytes()
}

// DecodeBlock parses the wire form produced by EncodeBlock. The returned
// block's Signature is always nil; callers that carry a signature alongside
// the canonical bytes must attach it separately.
func DecodeBlock(raw []byte) (*core.Block, error) {
	r := bytes.NewReader(raw)
	var blockSize uint32
	if err := binary.Read(r, binary.BigEndian, &blockSize); err != nil {
		return nil, fmt.Errorf("block.blockSize: %w", internalerrors.ErrMalformedBytes)
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("block.header: %w", internalerrors.ErrMalformedBytes)
	}
	header, err := DecodeBlockHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	var txCount uint64
	if err := binary.Read(r, binary.BigEndian, &txCount); err != nil {
		return nil, fmt.Errorf("block.txCount: %w", internalerrors.ErrMalformedBytes)
	}
	txs := make([]core.Transaction, 0, txCount)
	txBytes := make([]byte, transactionSize)
	for i := uint64(0); i < txCount; i++ {
		if _, err := io.ReadFull(r, txBytes); err != nil {
			return nil, fmt.Errorf("block.transactions[%d]: %w", i, internalerrors.ErrMalformedBytes)
		}
		tx, err := DecodeTransaction(txBytes)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return &core.Block{
		BlockSize:    blockSize,
		Header:       *header,
		Transactions: txs,
	}, nil
}

// RecomputeBlockSize returns the serialized length of the block besides the
// block_size field itself — a decorative figure, never consulted by
// verification.
func RecomputeBlockSize(b *core.Block) uint32 {
	full := EncodeBlock(b)
	return uint32(len(full) - 4)
}

// HashTransaction returns SHA-256(EncodeTransaction(tx)) — a Merkle leaf.
func HashTransaction(tx *core.Transaction) core.Hash {
	return sha256.Sum256(EncodeTransaction(tx))
}

// MerkleRoot computes the root-only Merkle commitment over a transaction
// list: pairwise SHA-256(left||right), duplicating the last leaf when a
// level has an odd count, until one node remains. The intermediate tree is
// never retained, only the root.
func MerkleRoot(txs []core.Transaction) core.Hash {
	if len(txs) == 0 {
		return sha256.Sum256(nil)
	}
	level := make([][]byte, len(txs))
	for i := range txs {
		h := HashTransaction(&txs[i])
		level[i] = h[:]
	}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			combined := append(append([]byte{}, left...), right...)
			h := sha256.Sum256(combined)
			next = append(next, h[:])
		}
		level = next
	}
	var root core.Hash
	copy(root[:], level[0])
	return root
}
