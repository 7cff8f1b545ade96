// Package core contains the fundamental data structures for EmPower1 Blockchain:
// Account, Transaction, BlockHeader, and Block, along with the bit-exact
// protocol constants the rest of the node is built on.
package core

import internalerrors "empower1.com/empower1blockchain/internal/errors"

// AddressSize is the length in bytes of an address's on-the-wire form: the
// ASCII characters of its Base58Check encoding, not a decoded payload. The
// fixed 5-byte version prefix (see AddressVersionBytes) always Base58-encodes
// a 29-byte version+hash+checksum payload to exactly 39 characters.
const AddressSize = 39

// Address holds the Base58Check-encoded string form of an address, stored as
// its raw ASCII bytes — this is the representation the wire format, hashes,
// and signatures all operate on. Use addresscodec.DeriveAddress to compute
// one from a public key and addresscodec.CheckAddressChecksum to validate it.
type Address [AddressSize]byte

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = 33

// PublicKey is a compressed secp256k1 public key.
type PublicKey [PublicKeySize]byte

// Hash is a SHA-256 digest.
type Hash [32]byte

// BytesToAddress copies b into an Address, failing if the length is wrong.
func BytesToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, internalerrors.ErrMalformedBytes
	}
	copy(a[:], b)
	return a, nil
}

// BytesToPublicKey copies b into a PublicKey, failing if the length is wrong.
func BytesToPublicKey(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, internalerrors.ErrMalformedBytes
	}
	copy(pk[:], b)
	return pk, nil
}
