// =================================
// File: internal/config/curve.go
// =================================
package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"

	"github.com/rovshanmuradov/pumpcurve/internal/curve"
)

// CurveAccountSize is the allocated size of the configuration account.
const CurveAccountSize = 8 + 32 + 8

var curveDiscriminator = func() [8]byte {
	hash := sha256.Sum256([]byte("account:CurveConfiguration"))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}()

// CurveConfiguration holds the program-wide fee. Values are immutable once built.
type CurveConfiguration struct {
	fees float64
}

// NewCurveConfiguration validates fees as a percentage in [0, 100].
func NewCurveConfiguration(fees float64) (CurveConfiguration, error) {
	if math.IsNaN(fees) || fees < 0 || fees > 100 {
		return CurveConfiguration{}, curve.ErrInvalidFee
	}
	return CurveConfiguration{fees: fees}, nil
}

// FeePercent returns the configured fee percentage.
func (c CurveConfiguration) FeePercent() float64 {
	return c.fees
}

// MarshalBinary encodes the configuration as account data.
func (c CurveConfiguration) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(curveDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(c.fees); err != nil {
		return nil, fmt.Errorf("failed to encode curve configuration: %w", err)
	}
	out := make([]byte, CurveAccountSize)
	copy(out, buf.Bytes())
	return out, nil
}

// DecodeCurveConfiguration parses configuration account data.
func DecodeCurveConfiguration(data []byte) (CurveConfiguration, error) {
	if len(data) < 16 {
		return CurveConfiguration{}, fmt.Errorf("curve configuration data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], curveDiscriminator[:]) {
		return CurveConfiguration{}, fmt.Errorf("invalid curve configuration discriminator: %x", data[:8])
	}
	var fees float64
	if err := bin.NewBorshDecoder(data[8:16]).Decode(&fees); err != nil {
		return CurveConfiguration{}, fmt.Errorf("failed to decode curve configuration: %w", err)
	}
	return NewCurveConfiguration(fees)
}
