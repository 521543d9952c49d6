package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ValidateAddress checks that addr is a well formed bech32 address. When hrp is set the
// address must also carry that human readable part.
func ValidateAddress(addr, hrp string) error {
	if len(addr) <= 0 {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	gotHrp, data, err := bech32.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(data) <= 0 {
		return fmt.Errorf("%w: missing data part", ErrInvalidAddress)
	}
	if len(hrp) > 0 && gotHrp != hrp {
		return fmt.Errorf("%w: expected prefix %s, got %s", ErrInvalidAddress, hrp, gotHrp)
	}
	return nil
}
