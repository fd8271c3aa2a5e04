// =============================
// File: internal/program/instruction.go
// =============================
package program

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Instruction names as exposed by the program entrypoints.
const (
	NameInitialize     = "initialize"
	NameCreatePool     = "create_pool"
	NameBuy            = "buy"
	NameSell           = "sell"
	NameRaydiumMigrate = "raydium_migrate"
)

var ErrUnknownInstruction = errors.New("unknown instruction discriminator")

// Instruction is the decoded argument set of one entrypoint.
type Instruction interface {
	Name() string
}

type Initialize struct {
	Fees float64
}

type CreatePool struct {
	TokenAmount uint64
}

type Buy struct {
	InAmount uint64
}

type Sell struct {
	InAmount uint64
}

type RaydiumMigrate struct {
	Nonce    uint8
	OpenTime uint64
}

func (Initialize) Name() string     { return NameInitialize }
func (CreatePool) Name() string     { return NameCreatePool }
func (Buy) Name() string            { return NameBuy }
func (Sell) Name() string           { return NameSell }
func (RaydiumMigrate) Name() string { return NameRaydiumMigrate }

// Discriminator returns the 8-byte Anchor instruction prefix for name.
func Discriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

var decoders = map[[8]byte]func() Instruction{
	Discriminator(NameInitialize):     func() Instruction { return &Initialize{} },
	Discriminator(NameCreatePool):     func() Instruction { return &CreatePool{} },
	Discriminator(NameBuy):            func() Instruction { return &Buy{} },
	Discriminator(NameSell):           func() Instruction { return &Sell{} },
	Discriminator(NameRaydiumMigrate): func() Instruction { return &RaydiumMigrate{} },
}

// Encode serializes ix as discriminator followed by its Borsh arguments.
func Encode(ix Instruction) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := Discriminator(ix.Name())
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(ix); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ix.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decode parses instruction data. The returned value is one of the
// argument structs by value.
func Decode(data []byte) (Instruction, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("instruction data too short: %d bytes", len(data))
	}
	var disc [8]byte
	copy(disc[:], data[:8])

	newIx, ok := decoders[disc]
	if !ok {
		return nil, fmt.Errorf("%x: %w", disc, ErrUnknownInstruction)
	}
	ix := newIx()
	if err := bin.NewBorshDecoder(data[8:]).Decode(ix); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ix.Name(), err)
	}

	switch v := ix.(type) {
	case *Initialize:
		return *v, nil
	case *CreatePool:
		return *v, nil
	case *Buy:
		return *v, nil
	case *Sell:
		return *v, nil
	case *RaydiumMigrate:
		return *v, nil
	}
	return ix, nil
}
