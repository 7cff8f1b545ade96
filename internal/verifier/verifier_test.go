package verifier

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/core"
)

type fakeAccountView struct {
	accounts map[core.Address]core.Account
}

func newFakeAccountView() *fakeAccountView {
	return &fakeAccountView{accounts: make(map[core.Address]core.Account)}
}

func (f *fakeAccountView) Account(addr core.Address) (core.Account, bool) {
	acc, ok := f.accounts[addr]
	return acc, ok
}

func (f *fakeAccountView) set(acc core.Account) {
	f.accounts[acc.Address] = acc
}

type testKey struct {
	priv *secp256k1.PrivateKey
	pub  core.PublicKey
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	var pub core.PublicKey
	copy(pub[:], priv.PubKey().SerializeCompressed())
	return testKey{priv: priv, pub: pub}
}

func (k testKey) sign(hash core.Hash) []byte {
	sig := ecdsa.Sign(k.priv, hash[:])
	return sig.Serialize()
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	k := newTestKey(t)
	hash := core.Hash{1, 2, 3}
	sig := k.sign(hash)

	if !VerifySignature(k.pub, hash, sig) {
		t.Error("VerifySignature rejected a valid signature")
	}

	var otherHash core.Hash
	otherHash[0] = 0xFF
	if VerifySignature(k.pub, otherHash, sig) {
		t.Error("VerifySignature accepted a signature over the wrong hash")
	}
}

func TestVerifySignatureRejectsGarbagePubKey(t *testing.T) {
	if VerifySignature(core.PublicKey{}, core.Hash{}, []byte{0x01}) {
		t.Error("VerifySignature accepted an all-zero (coinbase placeholder) public key")
	}
}

func TestIsCoinbase(t *testing.T) {
	tx := core.Transaction{Sender: core.CoinbaseSender, Amount: core.Subsidy(1)}
	if !IsCoinbase(&tx, 0, 0) {
		t.Error("IsCoinbase rejected a well-formed coinbase at index 0")
	}
	if IsCoinbase(&tx, 1, 0) {
		t.Error("IsCoinbase accepted a coinbase-shaped tx not at index 0")
	}

	overpaid := core.Transaction{Sender: core.CoinbaseSender, Amount: core.Subsidy(1) + 1}
	if IsCoinbase(&overpaid, 0, 0) {
		t.Error("IsCoinbase accepted an amount exceeding the subsidy")
	}
}

func TestIsValidatorEnable(t *testing.T) {
	k := newTestKey(t)
	view := newFakeAccountView()

	tx := core.Transaction{Sender: k.pub, Recipient: core.ValidatorEnableRecipient, Amount: core.MinimumStakingAmount}
	if !IsValidatorEnable(&tx, view, core.BootstrappingPhaseBlockHeight+1) {
		t.Error("IsValidatorEnable rejected a well-formed enable transaction")
	}

	under := core.Transaction{Sender: k.pub, Recipient: core.ValidatorEnableRecipient, Amount: core.MinimumStakingAmount - 1}
	if IsValidatorEnable(&under, view, core.BootstrappingPhaseBlockHeight+1) {
		t.Error("IsValidatorEnable accepted an under-minimum stake post-bootstrap")
	}
	if !IsValidatorEnable(&under, view, 0) {
		t.Error("IsValidatorEnable should not enforce the minimum during bootstrapping")
	}

	senderAddr := addresscodec.DeriveAddress(k.pub)
	view.set(core.Account{Address: senderAddr, IsValidator: true})
	if IsValidatorEnable(&tx, view, core.BootstrappingPhaseBlockHeight+1) {
		t.Error("IsValidatorEnable accepted a sender already marked as a validator")
	}
}

func TestIsValidatorRevoke(t *testing.T) {
	k := newTestKey(t)
	view := newFakeAccountView()
	senderAddr := addresscodec.DeriveAddress(k.pub)

	tx := core.Transaction{Sender: k.pub, Recipient: core.ValidatorRevokeRecipient, Amount: 500}
	if IsValidatorRevoke(&tx, view) {
		t.Error("IsValidatorRevoke accepted a non-validator sender")
	}

	view.set(core.Account{Address: senderAddr, IsValidator: true, Stake: 500})
	if !IsValidatorRevoke(&tx, view) {
		t.Error("IsValidatorRevoke rejected a well-formed revoke matching the sender's stake")
	}

	wrongAmount := core.Transaction{Sender: k.pub, Recipient: core.ValidatorRevokeRecipient, Amount: 499}
	if IsValidatorRevoke(&wrongAmount, view) {
		t.Error("IsValidatorRevoke accepted an amount that doesn't match the sender's stake")
	}
}

func TestVerifyTransactionCoinbaseSkipsSignatureAndNonce(t *testing.T) {
	view := newFakeAccountView()
	tx := core.Transaction{Sender: core.CoinbaseSender, Amount: core.Subsidy(1), Nonce: 999}
	if err := VerifyTransaction(&tx, true, view); err != nil {
		t.Errorf("VerifyTransaction(coinbase): %v", err)
	}
}

func TestVerifyTransactionPlainRequiresSignatureNonceAndFunds(t *testing.T) {
	k := newTestKey(t)
	senderAddr := addresscodec.DeriveAddress(k.pub)
	view := newFakeAccountView()
	view.set(core.Account{Address: senderAddr, Balance: 1000, Nonce: 0})

	var recipient core.Address
	copy(recipient[:], "BLoCK1DvvNhyJxoC845BEH7Dy2SbDHBPpaTw4W8")
	tx := core.Transaction{
		Version:   core.TransactionVersion,
		Amount:    100,
		Fee:       5,
		Recipient: recipient,
		Sender:    k.pub,
		Nonce:     0,
	}
	tx.Signature = k.sign(codec.TxSigningHash(&tx))

	if err := VerifyTransaction(&tx, false, view); err != nil {
		t.Errorf("VerifyTransaction(valid plain tx): %v", err)
	}

	badNonce := tx
	badNonce.Nonce = 1
	badNonce.Signature = k.sign(codec.TxSigningHash(&badNonce))
	if err := VerifyTransaction(&badNonce, false, view); err == nil {
		t.Error("VerifyTransaction accepted a transaction with the wrong nonce")
	}

	insufficient := tx
	insufficient.Amount = 10_000
	insufficient.Signature = k.sign(codec.TxSigningHash(&insufficient))
	if err := VerifyTransaction(&insufficient, false, view); err == nil {
		t.Error("VerifyTransaction accepted a transaction exceeding the sender's balance")
	}

	tampered := tx
	tampered.Amount = 200 // signature no longer covers this amount
	if err := VerifyTransaction(&tampered, false, view); err == nil {
		t.Error("VerifyTransaction accepted a transaction with a stale signature")
	}
}
