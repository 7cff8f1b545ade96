// Package internalerrors collects the sentinel errors surfaced by the
// consensus and state-transition engine. Call sites wrap these with
// fmt.Errorf("%w: ...", ErrX) to attach context; callers compare with
// errors.Is against the sentinel, never against the wrapped message.
package internalerrors

import "errors"

// Verification errors, one per error kind the verifier can fail with.
var (
	ErrMalformedBytes      = errors.New("malformed bytes")
	ErrBadSignature        = errors.New("bad signature")
	ErrNonceMismatch       = errors.New("nonce mismatch")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWrongParent         = errors.New("wrong parent hash")
	ErrBadMerkle           = errors.New("bad merkle root")
	ErrBadProposer         = errors.New("bad proposer")
	ErrBadTimestamp        = errors.New("bad timestamp")
	ErrBadCoinbase         = errors.New("bad coinbase")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrRPCTimeout          = errors.New("rpc timeout")
	ErrIncompatibleVersion = errors.New("incompatible peer version")
)

// General errors used outside the strict verification vocabulary above.
var (
	ErrNotImplemented          = errors.New("feature or method not implemented yet")
	ErrInvalidOperation        = errors.New("operation is invalid in the current context")
	ErrSignatureFailed         = errors.New("cryptographic signature operation failed")
	ErrCriticalStateCorruption = errors.New("critical state corruption detected")
	ErrAccountNotFound         = errors.New("account not found")
	ErrEmptyValidatorRoster    = errors.New("validator roster is empty")
	ErrWalletFileInvalid       = errors.New("wallet file is malformed")
	ErrConfigInvalid           = errors.New("configuration file is malformed")
	ErrPeerUnreachable         = errors.New("peer unreachable")
	ErrNoGenesis               = errors.New("ledger has no genesis block")
)

