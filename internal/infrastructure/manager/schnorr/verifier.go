package schnorrmanager

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	log "github.com/sirupsen/logrus"
)

type verifier struct {
	operators map[string]struct{}
	threshold int
}

// NewVerifier returns a manager service accepting envelopes signed by at least threshold
// distinct operators among the given x-only pubkeys.
func NewVerifier(operatorPubkeys []string, threshold int) (ports.ManagerService, error) {
	if len(operatorPubkeys) == 0 {
		return nil, fmt.Errorf("missing operator pubkeys")
	}
	operators := make(map[string]struct{}, len(operatorPubkeys))
	for _, key := range operatorPubkeys {
		key = strings.ToLower(strings.TrimSpace(key))
		buf, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("invalid operator pubkey %s: %s", key, err)
		}
		if _, err := schnorr.ParsePubKey(buf); err != nil {
			return nil, fmt.Errorf("invalid operator pubkey %s: %s", key, err)
		}
		operators[key] = struct{}{}
	}
	if threshold <= 0 || threshold > len(operators) {
		return nil, fmt.Errorf(
			"invalid threshold %d: must be in range [1, %d]", threshold, len(operators),
		)
	}
	return &verifier{operators, threshold}, nil
}

func (v *verifier) Validate(
	_ context.Context, envelope domain.Envelope, signatureData []byte,
) error {
	attestations, err := DecodeAttestations(signatureData)
	if err != nil {
		return err
	}

	digest := envelope.Digest()
	signers := make(map[string]struct{})
	for _, attestation := range attestations {
		pubkey := strings.ToLower(attestation.PubKey)
		if _, ok := v.operators[pubkey]; !ok {
			log.Debugf("ignoring attestation of unknown operator %s", pubkey)
			continue
		}
		if _, ok := signers[pubkey]; ok {
			continue
		}
		if err := attestation.verify(digest); err != nil {
			return err
		}
		signers[pubkey] = struct{}{}
	}

	if len(signers) < v.threshold {
		return fmt.Errorf(
			"not enough operator signatures: got %d, need %d", len(signers), v.threshold,
		)
	}
	return nil
}
