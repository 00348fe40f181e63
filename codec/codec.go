package codec

import (
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
)

// EncodeInstruction serializes an instruction as a u8 discriminant followed
// by the variant's fields.
func EncodeInstruction(ix types.Instruction) []byte {
	return encodeWith(1+4+len(ix.Value), func(e *Encoder) {
		e.WriteU8(uint8(ix.Kind))
		if ix.Kind == types.InstructionAppendLeaf {
			e.WriteBytes(ix.Value)
		}
	})
}

// DecodeInstruction parses instruction bytes. Unknown discriminants,
// truncated fields and trailing bytes all fail with ErrMalformedInstruction.
func DecodeInstruction(data []byte, maxValue int) (types.Instruction, error) {
	d := NewDecoder(data, treeerrors.ErrMalformedInstruction)
	tag, err := d.ReadU8("instruction tag")
	if err != nil {
		return types.Instruction{}, err
	}
	ix := types.Instruction{Kind: types.InstructionKind(tag)}
	switch ix.Kind {
	case types.InstructionAppendLeaf:
		if ix.Value, err = d.ReadBytes(maxValue, "value"); err != nil {
			return types.Instruction{}, err
		}
	case types.InstructionDescribe:
	default:
		return types.Instruction{}, &DecodeError{Kind: treeerrors.ErrMalformedInstruction, Offset: 0, Reason: "unknown instruction " + ix.Kind.String()}
	}
	if err := d.Finish(); err != nil {
		return types.Instruction{}, err
	}
	return ix, nil
}

// EncodeAccount serializes an account record: owner[32] ‖ u64 funding ‖
// u32 length ‖ data.
func EncodeAccount(a *types.Account) []byte {
	return encodeWith(common.AddressLength+8+4+len(a.Data), func(e *Encoder) {
		e.WriteFixed(a.Owner.Bytes())
		e.WriteU64(a.Funding)
		e.WriteBytes(a.Data)
	})
}

// DecodeAccount parses a record written by EncodeAccount.
func DecodeAccount(data []byte) (*types.Account, error) {
	d := NewDecoder(data, treeerrors.ErrDecode)
	owner, err := d.ReadFixed(common.AddressLength, "owner")
	if err != nil {
		return nil, err
	}
	funding, err := d.ReadU64("funding")
	if err != nil {
		return nil, err
	}
	body, err := d.ReadBytes(0, "account data")
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return &types.Account{Owner: common.BytesToAddress(owner), Funding: funding, Data: body}, nil
}
