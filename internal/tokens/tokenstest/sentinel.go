// Package tokenstest provides test doubles for the tokens package.
package tokenstest

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fastprodman/wagerhouse/internal/tokens"
)

// Sentinel is the signature SentinelVerifier accepts.
var Sentinel = []byte("0x")

// SentinelVerifier accepts exactly the Sentinel signature for any signer.
type SentinelVerifier struct{}

func (SentinelVerifier) Verify(_ common.Address, _ common.Hash, signature []byte) error {
	if !bytes.Equal(signature, Sentinel) {
		return fmt.Errorf("%w: not the sentinel signature", tokens.ErrInvalidSignature)
	}
	return nil
}

// Call is one observed TransferFrom.
type Call struct {
	Owner  common.Address
	To     common.Address
	Amount *uint256.Int
	Token  common.Address
}

// RecordingPort wraps a TransferPort and records successful delegated transfers.
type RecordingPort struct {
	tokens.TransferPort

	mu    sync.Mutex
	calls []Call
	fail  error
}

func NewRecordingPort(inner tokens.TransferPort) *RecordingPort {
	return &RecordingPort{TransferPort: inner}
}

// FailNext makes every following call fail with err until cleared with nil.
func (p *RecordingPort) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fail = err
}

func (p *RecordingPort) Transfer(asset, from, to common.Address, amount *uint256.Int) error {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()

	if fail != nil {
		return tokens.Fail(fail)
	}

	return p.TransferPort.Transfer(asset, from, to, amount)
}

func (p *RecordingPort) TransferFrom(
	owner, spender common.Address,
	permit tokens.Permit,
	details tokens.TransferDetails,
	signature []byte,
) error {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()

	if fail != nil {
		return tokens.Fail(fail)
	}

	err := p.TransferPort.TransferFrom(owner, spender, permit, details, signature)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, Call{
		Owner:  owner,
		To:     details.To,
		Amount: tokens.OrZero(details.RequestedAmount).Clone(),
		Token:  permit.Permitted.Token,
	})

	return nil
}

func (p *RecordingPort) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Call, len(p.calls))
	copy(out, p.calls)

	return out
}
