package types

import (
	"fmt"
)

// InstructionKind is the borsh enum discriminant of a program instruction.
type InstructionKind uint8

const (
	InstructionAppendLeaf InstructionKind = 0
	InstructionDescribe   InstructionKind = 1
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionAppendLeaf:
		return "AppendLeaf"
	case InstructionDescribe:
		return "Describe"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Instruction is one request to the tree program. Value is only meaningful
// for AppendLeaf.
type Instruction struct {
	Kind  InstructionKind `json:"kind"`
	Value []byte          `json:"value,omitempty"`
}

func NewAppendLeaf(value []byte) Instruction {
	return Instruction{Kind: InstructionAppendLeaf, Value: value}
}

func NewDescribe() Instruction {
	return Instruction{Kind: InstructionDescribe}
}

func (ix Instruction) String() string {
	if ix.Kind == InstructionAppendLeaf {
		return fmt.Sprintf("%s{value: %v}", ix.Kind, ix.Value)
	}
	return ix.Kind.String()
}
