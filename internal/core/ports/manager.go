package ports

import (
	"context"

	"github.com/arkade-os/tgpay/internal/core/domain"
)

// ManagerService decides whether an envelope was attested by the operator network.
type ManagerService interface {
	Validate(ctx context.Context, envelope domain.Envelope, signatureData []byte) error
}

// EnvelopeSigner produces the signature data of this operator for an envelope.
type EnvelopeSigner interface {
	Sign(ctx context.Context, envelope domain.Envelope) ([]byte, error)
	PubKey() string
}
