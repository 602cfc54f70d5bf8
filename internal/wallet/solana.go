package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58/base58"
)

func parseSolana(address string) (string, error) {
	if len(address) < 32 || len(address) > 44 {
		return "", fmt.Errorf("%w: solana address must be 32-44 base58 characters", ErrInvalidFormat)
	}

	key, err := base58.Decode(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(key) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: solana address must decode to %d bytes", ErrInvalidFormat, ed25519.PublicKeySize)
	}

	return base58.Encode(key), nil
}

// verifySolana checks a base58 ed25519 signature over the raw message bytes.
func verifySolana(address string, message []byte, signature string) error {
	key, err := base58.Decode(address)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key", ErrInvalidFormat)
	}

	sig, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, ed25519.SignatureSize, len(sig))
	}

	if !ed25519.Verify(ed25519.PublicKey(key), message, sig) {
		return ErrSignatureMismatch
	}
	return nil
}
