package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// publicKeyBytes gives the 2000 hex digits the decrypt message carries.
const publicKeyBytes = 1000

// SignatureParams are embedded in the message a player signs to decrypt.
type SignatureParams struct {
	PublicKey       string `json:"publicKey"`
	ContractAddress string `json:"contractAddress"`
	ChainID         int64  `json:"chainId"`
	StartTimestamp  int64  `json:"startTimestamp"`
	DurationDays    int    `json:"durationDays"`
}

// GeneratePublicKey returns a synthetic 0x-prefixed key. It is not a real
// key of any scheme.
func GeneratePublicKey() (string, error) {
	buf := make([]byte, publicKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// Message renders the text handed to the wallet for signing.
func (p SignatureParams) Message() string {
	return fmt.Sprintf("publickey:%s\ncontractAddresses:%s\ncontractsChainId:%d\nstartTimestamp:%d\ndurationDays:%d",
		p.PublicKey, p.ContractAddress, p.ChainID, p.StartTimestamp, p.DurationDays)
}
