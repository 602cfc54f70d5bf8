// Package wallet parses wallet addresses and checks ownership signatures.
// It never touches storage.
package wallet

import (
	"errors"
	"fmt"
	"strings"
)

type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

var (
	ErrInvalidFormat     = errors.New("invalid wallet address format")
	ErrInvalidSignature  = errors.New("invalid signature encoding")
	ErrSignatureMismatch = errors.New("signature does not match wallet address")
)

// Address is a syntactically valid wallet address in canonical form.
type Address struct {
	Chain     Chain
	Canonical string
}

func (a Address) String() string {
	return a.Canonical
}

// Parse validates address and returns its canonical form. Addresses starting
// with 0x are Ethereum addresses; anything else is tried as Solana.
func Parse(address string) (Address, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Address{}, fmt.Errorf("%w: address is required", ErrInvalidFormat)
	}

	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		canonical, err := parseEthereum(address)
		if err != nil {
			return Address{}, err
		}
		return Address{Chain: ChainEthereum, Canonical: canonical}, nil
	}

	canonical, err := parseSolana(address)
	if err != nil {
		return Address{}, err
	}
	return Address{Chain: ChainSolana, Canonical: canonical}, nil
}

// VerifySignature checks that signature was produced over message by the
// key that owns addr.
func VerifySignature(addr Address, message []byte, signature string) error {
	switch addr.Chain {
	case ChainEthereum:
		return verifyEthereum(addr.Canonical, message, signature)
	case ChainSolana:
		return verifySolana(addr.Canonical, message, signature)
	default:
		return fmt.Errorf("%w: unsupported chain %q", ErrInvalidFormat, addr.Chain)
	}
}

// ChallengeMessage is the exact text a wallet owner signs to prove
// possession of the key. Fields are joined with "\n", no trailing newline.
func ChallengeMessage(appName, accountID string, addr Address, nonce string) string {
	return strings.Join([]string{
		appName + " wallet verification",
		"account:" + accountID,
		"address:" + addr.Canonical,
		"nonce:" + nonce,
	}, "\n")
}
