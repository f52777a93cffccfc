package tokens

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const domainName = "Permit2"

var (
	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,uint256 chainId,address verifyingContract)",
	))
	tokenPermissionsTypeHash = crypto.Keccak256Hash([]byte(
		"TokenPermissions(address token,uint256 amount)",
	))
	permitTransferFromTypeHash = crypto.Keccak256Hash([]byte(
		"PermitTransferFrom(TokenPermissions permitted,address spender,uint256 nonce,uint256 deadline)" +
			"TokenPermissions(address token,uint256 amount)",
	))
)

// Domain scopes permit signatures to one chain and one verifying contract.
type Domain struct {
	ChainID           uint64
	VerifyingContract common.Address
}

// Separator returns the EIP-712 domain separator.
func (d Domain) Separator() common.Hash {
	chainID := uint256.NewInt(d.ChainID).Bytes32()

	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(domainName)),
		chainID[:],
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// Digest returns the typed-data hash the owner signs to let spender pull
// funds under this permit.
func (p Permit) Digest(d Domain, spender common.Address) common.Hash {
	amount := OrZero(p.Permitted.Amount).Bytes32()
	nonce := OrZero(p.Nonce).Bytes32()
	deadline := OrZero(p.Deadline).Bytes32()

	permitted := crypto.Keccak256(
		tokenPermissionsTypeHash.Bytes(),
		common.LeftPadBytes(p.Permitted.Token.Bytes(), 32),
		amount[:],
	)

	structHash := crypto.Keccak256(
		permitTransferFromTypeHash.Bytes(),
		permitted,
		common.LeftPadBytes(spender.Bytes(), 32),
		nonce[:],
		deadline[:],
	)

	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		d.Separator().Bytes(),
		structHash,
	)
}

// SignPermit produces the 65-byte [R || S || V] signature of the permit digest.
func SignPermit(key *ecdsa.PrivateKey, d Domain, p Permit, spender common.Address) ([]byte, error) {
	digest := p.Digest(d, spender)

	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("sign permit: %w", err)
	}

	return sig, nil
}

// ECDSAVerifier recovers the signer of a secp256k1 signature.
type ECDSAVerifier struct{}

func (ECDSAVerifier) Verify(signer common.Address, digest common.Hash, signature []byte) error {
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(signature))
	}

	sig := make([]byte, len(signature))
	copy(sig, signature)
	// Accept Ethereum-style recovery ids (27/28).
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return fmt.Errorf("%w: recover pubkey: %v", ErrInvalidSignature, err)
	}

	if crypto.PubkeyToAddress(*pub) != signer {
		return fmt.Errorf("%w: signer mismatch", ErrInvalidSignature)
	}

	return nil
}
