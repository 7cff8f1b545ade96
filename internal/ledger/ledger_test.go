package ledger

import (
	"testing"

	"empower1.com/empower1blockchain/internal/core"
)

func addr(s string) core.Address {
	var a core.Address
	copy(a[:], s)
	return a
}

func TestNewLedgerHasNoGenesis(t *testing.T) {
	l := New()
	if l.HasGenesis() {
		t.Error("a freshly constructed ledger should have no genesis")
	}
	if _, ok := l.BlockAt(0); ok {
		t.Error("BlockAt(0) on an empty ledger should report not found")
	}
}

func TestInstallGenesisRejectsDouble(t *testing.T) {
	l := New()
	block := &core.Block{}
	if err := l.InstallGenesis(block); err != nil {
		t.Fatalf("first InstallGenesis: %v", err)
	}
	if err := l.InstallGenesis(block); err == nil {
		t.Error("second InstallGenesis should fail")
	}
	if l.BlockHeight() != 0 {
		t.Errorf("BlockHeight after genesis = %d, want 0", l.BlockHeight())
	}
}

func TestAppendBlockAdvancesHeight(t *testing.T) {
	l := New()
	l.InstallGenesis(&core.Block{})
	l.AppendBlock(&core.Block{})
	if l.BlockHeight() != 1 {
		t.Errorf("BlockHeight after one append = %d, want 1", l.BlockHeight())
	}
	if l.LastBlock() == nil {
		t.Fatal("LastBlock is nil after append")
	}
}

func TestAccountLazyCreationAndIsolation(t *testing.T) {
	l := New()
	a := addr("BLoCK1DvvNhyJxoC845BEH7Dy2SbDHBPpaTw4W8")

	if _, ok := l.Account(a); ok {
		t.Fatal("Account should report not-found before any credit")
	}

	l.WithAccountsLocked(func(m *Mutator) {
		m.Account(a).Balance = 500
	})

	acc, ok := l.Account(a)
	if !ok || acc.Balance != 500 {
		t.Fatalf("Account(%q) = %+v, ok=%v; want balance 500", a, acc, ok)
	}

	acc.Balance = 0 // mutating the returned copy must not affect the ledger
	acc2, _ := l.Account(a)
	if acc2.Balance != 500 {
		t.Errorf("mutating the returned Account copy affected the ledger: got %d, want 500", acc2.Balance)
	}
}

func TestMempoolOrderedByNonce(t *testing.T) {
	l := New()
	var sender core.PublicKey
	sender[0] = 0x02

	l.AddToMempool(core.Transaction{Sender: sender, Nonce: 3})
	l.AddToMempool(core.Transaction{Sender: sender, Nonce: 1})
	l.AddToMempool(core.Transaction{Sender: sender, Nonce: 2})

	snap := l.MempoolSnapshot()
	queue := snap[sender]
	if len(queue) != 3 {
		t.Fatalf("mempool queue length = %d, want 3", len(queue))
	}
	for i, want := range []uint64{1, 2, 3} {
		if queue[i].Nonce != want {
			t.Errorf("queue[%d].Nonce = %d, want %d", i, queue[i].Nonce, want)
		}
	}
}

func TestDropFromMempoolFront(t *testing.T) {
	l := New()
	var sender core.PublicKey
	sender[0] = 0x02

	if l.DropFromMempoolFront(sender) {
		t.Error("DropFromMempoolFront on an empty queue should report false")
	}

	l.AddToMempool(core.Transaction{Sender: sender, Nonce: 1})
	l.AddToMempool(core.Transaction{Sender: sender, Nonce: 2})

	if !l.DropFromMempoolFront(sender) {
		t.Fatal("DropFromMempoolFront should report true when a tx is removed")
	}
	snap := l.MempoolSnapshot()
	if len(snap[sender]) != 1 || snap[sender][0].Nonce != 2 {
		t.Errorf("remaining queue = %+v, want [{Nonce:2}]", snap[sender])
	}
}

func TestValidatorRosterAppendAndRemove(t *testing.T) {
	l := New()
	var v1, v2 core.PublicKey
	v1[0] = 0x02
	v2[0] = 0x03

	l.WithAccountsLocked(func(m *Mutator) {
		m.AppendValidator(v1)
		m.AppendValidator(v2)
	})
	roster := l.Validators()
	if len(roster) != 2 || roster[0] != v1 || roster[1] != v2 {
		t.Fatalf("roster after appends = %+v", roster)
	}

	l.WithAccountsLocked(func(m *Mutator) {
		m.RemoveValidator(v1)
	})
	roster = l.Validators()
	if len(roster) != 1 || roster[0] != v2 {
		t.Fatalf("roster after removal = %+v, want [v2]", roster)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	a := addr("BLoCK1DvvNhyJxoC845BEH7Dy2SbDHBPpaTw4W8")
	l.InstallGenesis(&core.Block{})
	l.WithAccountsLocked(func(m *Mutator) {
		m.Account(a).Balance = 100
	})

	clone := l.Clone()
	clone.WithAccountsLocked(func(m *Mutator) {
		m.Account(a).Balance = 999
		m.AdvanceHeight()
	})

	orig, _ := l.Account(a)
	if orig.Balance != 100 {
		t.Errorf("mutating a clone affected the original: Balance = %d, want 100", orig.Balance)
	}
	if l.BlockHeight() != 0 {
		t.Errorf("mutating a clone's height affected the original: %d, want 0", l.BlockHeight())
	}
}

func TestAdoptFromReplacesState(t *testing.T) {
	l := New()
	a := addr("BLoCK1DvvNhyJxoC845BEH7Dy2SbDHBPpaTw4W8")
	l.InstallGenesis(&core.Block{})

	clone := l.Clone()
	clone.WithAccountsLocked(func(m *Mutator) {
		m.Account(a).Balance = 777
		m.AdvanceHeight()
	})

	l.AdoptFrom(clone)

	acc, ok := l.Account(a)
	if !ok || acc.Balance != 777 {
		t.Errorf("AdoptFrom did not carry over account state: %+v, ok=%v", acc, ok)
	}
	if l.BlockHeight() != 1 {
		t.Errorf("AdoptFrom did not carry over block height: %d, want 1", l.BlockHeight())
	}
}

func TestHashLastHeaderPanicsBeforeGenesis(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("HashLastHeader should panic before genesis is installed")
		}
	}()
	New().HashLastHeader()
}
