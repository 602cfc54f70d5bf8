package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func parseEthereum(address string) (string, error) {
	hexPart := address[2:]
	if len(hexPart) != 2*common.AddressLength {
		return "", fmt.Errorf("%w: ethereum address must be 40 hex characters", ErrInvalidFormat)
	}
	if !isHex(hexPart) {
		return "", fmt.Errorf("%w: ethereum address contains non-hex characters", ErrInvalidFormat)
	}

	checksummed := common.HexToAddress(hexPart).Hex()

	// All-lower and all-upper addresses carry no checksum. Mixed case must
	// match EIP-55 exactly.
	if hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart) {
		if "0x"+hexPart != checksummed {
			return "", fmt.Errorf("%w: ethereum address checksum mismatch", ErrInvalidFormat)
		}
	}

	return checksummed, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// verifyEthereum checks an EIP-191 personal_sign signature (r || s || v).
func verifyEthereum(address string, message []byte, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}

	// Wallets emit v as 27/28; recovery wants 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return fmt.Errorf("%w: bad recovery id", ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrSignatureMismatch
	}
	return nil
}
