package schnorrmanager

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

type signer struct {
	privkey *btcec.PrivateKey
	pubkey  string
}

// NewSigner returns the envelope signer of an operator given its hex encoded private key.
func NewSigner(privkeyHex string) (ports.EnvelopeSigner, error) {
	buf, err := hex.DecodeString(privkeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key format: %s", err)
	}
	if len(buf) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf(
			"invalid private key length: expected %d bytes, got %d", btcec.PrivKeyBytesLen, len(buf),
		)
	}
	privkey, pubkey := btcec.PrivKeyFromBytes(buf)
	return &signer{
		privkey: privkey,
		pubkey:  hex.EncodeToString(schnorr.SerializePubKey(pubkey)),
	}, nil
}

func (s *signer) Sign(_ context.Context, envelope domain.Envelope) ([]byte, error) {
	digest := envelope.Digest()
	sig, err := schnorr.Sign(s.privkey, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign envelope %s: %s", envelope.EventId, err)
	}
	return EncodeAttestations(Attestation{
		PubKey:    s.pubkey,
		Signature: hex.EncodeToString(sig.Serialize()),
	})
}

func (s *signer) PubKey() string {
	return s.pubkey
}
