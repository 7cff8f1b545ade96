// Package addresscodec derives Bitcoin-style Base58Check addresses from
// compressed secp256k1 public keys, validates address checksums, and
// encodes/decodes WIF private keys.
package addresscodec

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/decred/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // protocol requires RIPEMD-160, not an alternative

	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

const checksumSize = 4

// doubleSHA256 returns SHA-256(SHA-256(b)).
func doubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// DeriveAddress computes a compressed public key's address. The payload is
// RIPEMD-160(SHA-256(pubkey)), prefixed with the 5-byte version and suffixed
// with a 4-byte double-SHA256 checksum over prefix+hash; core.Address itself
// stores the ASCII bytes of that payload's Base58 encoding, not the raw
// payload — this is how the reference chain's genesis transaction encodes
// its recipient, and the fixed version prefix reliably yields 39 characters.
func DeriveAddress(pubKey core.PublicKey) core.Address {
	payload := addressPayload(pubKey)
	encoded := base58.Encode(payload)

	var addr core.Address
	copy(addr[:], encoded)
	return addr
}

// addressPayload computes the 29-byte version+hash+checksum payload that
// gets Base58-encoded into an address.
func addressPayload(pubKey core.PublicKey) []byte {
	shaHash := sha256.Sum256(pubKey[:])
	ripemd := ripemd160.New()
	ripemd.Write(shaHash[:])
	pubKeyHash := ripemd.Sum(nil)

	payload := make([]byte, 0, len(core.AddressVersionBytes)+len(pubKeyHash)+checksumSize)
	payload = append(payload, core.AddressVersionBytes[:]...)
	payload = append(payload, pubKeyHash...)
	checksum := doubleSHA256(payload)
	payload = append(payload, checksum[:checksumSize]...)
	return payload
}

// CheckAddressChecksum Base58-decodes the string stored in addr and
// recomputes the checksum over its version+hash prefix, comparing against
// the trailing 4 decoded bytes.
func CheckAddressChecksum(addr core.Address) bool {
	raw := base58.Decode(addressString(addr))
	if len(raw) <= checksumSize {
		return false
	}
	payload := raw[:len(raw)-checksumSize]
	want := raw[len(raw)-checksumSize:]
	got := doubleSHA256(payload)
	for i := 0; i < checksumSize; i++ {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// addressString returns the Base58 string an address's bytes represent,
// trimming the trailing NUL padding DeriveAddress leaves when the encoded
// string is shorter than core.AddressSize.
func addressString(addr core.Address) string {
	return strings.TrimRight(string(addr[:]), "\x00")
}

// EncodeAddress returns the display form of addr: the Base58 string whose
// ASCII bytes addr already stores.
func EncodeAddress(addr core.Address) string {
	return addressString(addr)
}

// DecodeAddressString validates s as a Base58Check address string and
// returns its core.Address representation (s's own ASCII bytes).
func DecodeAddressString(s string) (core.Address, error) {
	addr, err := core.BytesToAddress([]byte(s))
	if err != nil {
		return core.Address{}, fmt.Errorf("address %q: %w", s, internalerrors.ErrMalformedBytes)
	}
	if !CheckAddressChecksum(addr) {
		return core.Address{}, fmt.Errorf("address %q: bad checksum: %w", s, internalerrors.ErrMalformedBytes)
	}
	return addr, nil
}

// EncodeWIF encodes a 32-byte secp256k1 private key in WIF form:
// 0x80 || privkey || [0x01 if compressed] || checksum4, Base58-encoded.
func EncodeWIF(privKey [32]byte, compressed bool) string {
	payload := make([]byte, 0, 1+32+1+checksumSize)
	payload = append(payload, core.WIFVersionPrefix)
	payload = append(payload, privKey[:]...)
	if compressed {
		payload = append(payload, core.WIFCompressedSuffix)
	}
	checksum := doubleSHA256(payload)
	payload = append(payload, checksum[:checksumSize]...)
	return base58.Encode(payload)
}

// DecodeWIF reverses EncodeWIF, validating the version byte and checksum.
func DecodeWIF(wif string) (privKey [32]byte, compressed bool, err error) {
	raw := base58.Decode(wif)
	if len(raw) != 1+32+checksumSize && len(raw) != 1+32+1+checksumSize {
		return privKey, false, fmt.Errorf("wif %q: unexpected length %d: %w", wif, len(raw), internalerrors.ErrMalformedBytes)
	}
	payload := raw[:len(raw)-checksumSize]
	wantChecksum := raw[len(raw)-checksumSize:]
	gotChecksum := doubleSHA256(payload)
	for i := 0; i < checksumSize; i++ {
		if gotChecksum[i] != wantChecksum[i] {
			return privKey, false, fmt.Errorf("wif %q: bad checksum: %w", wif, internalerrors.ErrMalformedBytes)
		}
	}
	if payload[0] != core.WIFVersionPrefix {
		return privKey, false, fmt.Errorf("wif %q: bad version byte: %w", wif, internalerrors.ErrMalformedBytes)
	}
	compressed = len(payload) == 1+32+1
	copy(privKey[:], payload[1:33])
	return privKey, compressed, nil
}
