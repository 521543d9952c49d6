package schnorrmanager

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Attestation is a BIP-340 signature of an operator over an envelope digest.
// Signature data exchanged between operators and the ledger is a JSON list of attestations.
type Attestation struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

func (a Attestation) verify(digest [32]byte) error {
	pubkeyBytes, err := hex.DecodeString(a.PubKey)
	if err != nil {
		return fmt.Errorf("invalid pubkey format: %s", err)
	}
	pubkey, err := schnorr.ParsePubKey(pubkeyBytes)
	if err != nil {
		return fmt.Errorf("invalid pubkey: %s", err)
	}
	sigBytes, err := hex.DecodeString(a.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature format: %s", err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("invalid signature: %s", err)
	}
	if !sig.Verify(digest[:], pubkey) {
		return fmt.Errorf("signature verification failed for %s", a.PubKey)
	}
	return nil
}

func EncodeAttestations(attestations ...Attestation) ([]byte, error) {
	return json.Marshal(attestations)
}

func DecodeAttestations(data []byte) ([]Attestation, error) {
	var attestations []Attestation
	if err := json.Unmarshal(data, &attestations); err != nil {
		return nil, fmt.Errorf("invalid signature data: %s", err)
	}
	return attestations, nil
}
