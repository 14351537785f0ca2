package walletsvc

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var ErrInvalidSignature = errors.New("invalid signature")

// VerifyPersonalSignature checks that `sigHex` is a personal-sign signature
// over `message` produced by `address`.
func VerifyPersonalSignature(address, message, sigHex string) error {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, "decoding signature")
	}
	if len(sig) != crypto.SignatureLength {
		return errors.Wrap(ErrInvalidSignature, "signature must be 65 bytes")
	}

	// undo the legacy V encoding before recovery
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, "recovering signer")
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrInvalidSignature
	}
	return nil
}
