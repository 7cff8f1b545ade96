package codec

import (
	"bytes"
	"reflect"
	"testing"

	"empower1.com/empower1blockchain/internal/core"
)

func sampleTransaction() core.Transaction {
	var recipient core.Address
	copy(recipient[:], "BLoCK1DvvNhyJxoC845BEH7Dy2SbDHBPpaTw4W8")
	var sender core.PublicKey
	sender[0] = 0x02
	for i := 1; i < len(sender); i++ {
		sender[i] = byte(i)
	}
	return core.Transaction{
		Version:   core.TransactionVersion,
		Amount:    1_000,
		Fee:       10,
		Recipient: recipient,
		Sender:    sender,
		Signature: bytes.Repeat([]byte{0xAB}, 64),
		Nonce:     7,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	encoded := EncodeTransaction(&tx)

	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if !reflect.DeepEqual(*decoded, tx) {
		t.Errorf("round trip mismatch: got %+v, want %+v", *decoded, tx)
	}
}

func TestDecodeTransactionRejectsTruncated(t *testing.T) {
	tx := sampleTransaction()
	encoded := EncodeTransaction(&tx)
	if _, err := DecodeTransaction(encoded[:len(encoded)-1]); err == nil {
		t.Error("DecodeTransaction accepted a truncated buffer")
	}
}

func TestTxSigningHashExcludesSenderAndSignature(t *testing.T) {
	tx := sampleTransaction()
	want := TxSigningHash(&tx)

	tx.Signature = bytes.Repeat([]byte{0xFF}, 64)
	if got := TxSigningHash(&tx); got != want {
		t.Error("TxSigningHash changed when only the signature changed")
	}

	tx.Sender[1] ^= 0xFF
	if got := TxSigningHash(&tx); got != want {
		t.Error("TxSigningHash changed when only the sender changed")
	}
}

func sampleHeader() core.BlockHeader {
	var prev, merkle core.Hash
	prev[0] = 0x01
	merkle[0] = 0x02
	return core.BlockHeader{
		Version:    core.BlockVersion,
		PrevHash:   prev,
		MerkleRoot: merkle,
		Timestamp:  1_700_000_000,
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	encoded := EncodeBlockHeader(&h)

	decoded, err := DecodeBlockHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeBlockHeader: %v", err)
	}
	if *decoded != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", *decoded, h)
	}
}

func TestHashHeaderDeterministic(t *testing.T) {
	h := sampleHeader()
	if HashHeader(&h) != HashHeader(&h) {
		t.Error("HashHeader is not deterministic")
	}
	h2 := h
	h2.Timestamp++
	if HashHeader(&h) == HashHeader(&h2) {
		t.Error("HashHeader did not change when timestamp changed")
	}
}

func TestBlockRoundTripExcludesSignature(t *testing.T) {
	tx := sampleTransaction()
	b := &core.Block{
		Header:       sampleHeader(),
		Transactions: []core.Transaction{tx},
		Signature:    bytes.Repeat([]byte{0xCD}, 64),
	}
	b.BlockSize = RecomputeBlockSize(b)

	encoded := EncodeBlock(b)
	decoded, err := DecodeBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}

	if decoded.Signature != nil {
		t.Errorf("DecodeBlock set a signature from canonical bytes, got %x", decoded.Signature)
	}
	if decoded.BlockSize != b.BlockSize {
		t.Errorf("BlockSize mismatch: got %d, want %d", decoded.BlockSize, b.BlockSize)
	}
	if decoded.Header != b.Header {
		t.Errorf("Header mismatch: got %+v, want %+v", decoded.Header, b.Header)
	}
	if len(decoded.Transactions) != 1 || !reflect.DeepEqual(decoded.Transactions[0], tx) {
		t.Errorf("Transactions mismatch: got %+v, want [%+v]", decoded.Transactions, tx)
	}
}

func TestDecodeBlockRejectsTruncatedFinalTransaction(t *testing.T) {
	tx := sampleTransaction()
	b := &core.Block{
		Header:       sampleHeader(),
		Transactions: []core.Transaction{tx, tx},
	}
	b.BlockSize = RecomputeBlockSize(b)

	encoded := EncodeBlock(b)
	if _, err := DecodeBlock(encoded[:len(encoded)-1]); err == nil {
		t.Error("DecodeBlock accepted a block truncated one byte into its final transaction")
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	root := MerkleRoot(nil)
	var zero core.Hash
	if root == zero {
		t.Error("MerkleRoot(nil) should not be the zero hash (it is SHA-256 of an empty input)")
	}
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	tx1 := sampleTransaction()
	tx2 := sampleTransaction()
	tx2.Nonce = 99

	threeLeaves := MerkleRoot([]core.Transaction{tx1, tx2, tx2})
	fourLeavesWithDuplicate := MerkleRoot([]core.Transaction{tx1, tx2, tx2, tx2})
	if threeLeaves != fourLeavesWithDuplicate {
		t.Error("MerkleRoot of an odd leaf count should equal duplicating the last leaf")
	}
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	tx1 := sampleTransaction()
	tx2 := sampleTransaction()
	tx2.Nonce = 99

	forward := MerkleRoot([]core.Transaction{tx1, tx2})
	backward := MerkleRoot([]core.Transaction{tx2, tx1})
	if forward == backward {
		t.Error("MerkleRoot should be sensitive to transaction order")
	}
}
