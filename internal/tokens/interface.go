package tokens

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrTransferFailed is the umbrella error for every failed funds movement.
// The more specific errors below are always reported wrapped together with it.
var ErrTransferFailed = errors.New("transfer failed")

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrPermitExpired       = errors.New("permit expired")
	ErrNonceUsed           = errors.New("nonce already used")
	ErrAmountExceedsPermit = errors.New("requested amount exceeds permitted amount")
)

// TransferPort moves fungible tokens between holders.
type TransferPort interface {
	// Transfer moves amount of asset from one holder to another.
	Transfer(asset, from, to common.Address, amount *uint256.Int) error
	// TransferFrom moves funds out of owner's balance on behalf of spender
	// using a signed permit.
	TransferFrom(owner, spender common.Address, permit Permit, details TransferDetails, signature []byte) error
	BalanceOf(asset, holder common.Address) *uint256.Int
}

// Verifier checks that signature over digest was produced by signer.
type Verifier interface {
	Verify(signer common.Address, digest common.Hash, signature []byte) error
}

type TokenPermissions struct {
	Token  common.Address
	Amount *uint256.Int
}

// Permit authorizes a single transfer of up to Permitted.Amount before
// Deadline (unix seconds). Nonces are single use per owner.
type Permit struct {
	Permitted TokenPermissions
	Nonce     *uint256.Int
	Deadline  *uint256.Int
}

type TransferDetails struct {
	To              common.Address
	RequestedAmount *uint256.Int
}

// Fail wraps reason so that callers can match both ErrTransferFailed and
// the specific reason.
func Fail(reason error) error {
	return errors.Join(ErrTransferFailed, reason)
}

// OrZero returns v or a fresh zero value when v is nil.
func OrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
