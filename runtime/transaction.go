package runtime

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is one signed program invocation. Payer is both the signer
// and the only account the invocation may debit.
type Transaction struct {
	Payer     common.Address `json:"payer"`
	Region    common.Address `json:"region"`
	Data      hexutil.Bytes  `json:"data"`
	Signature hexutil.Bytes  `json:"signature"`
}

// SigningHash is the digest the payer signs.
func SigningHash(programID, payer, region common.Address, data []byte) common.Hash {
	return common.Blake2HashParts(programID.Bytes(), payer.Bytes(), region.Bytes(), data)
}

func (tx *Transaction) Hash(programID common.Address) common.Hash {
	return SigningHash(programID, tx.Payer, tx.Region, tx.Data)
}

// NewTransaction signs data for the region derived from the signer.
func NewTransaction(programID common.Address, signer *ed25519.Keypair, ix types.Instruction) *Transaction {
	payer := signer.Address()
	tx := &Transaction{
		Payer:  payer,
		Region: program.RegionAddress(programID, payer),
		Data:   codec.EncodeInstruction(ix),
	}
	tx.Sign(programID, signer)
	return tx
}

func (tx *Transaction) Sign(programID common.Address, signer *ed25519.Keypair) {
	h := tx.Hash(programID)
	tx.Signature = signer.Sign(h.Bytes())
}

// Verify checks that Payer signed the transaction for programID.
func (tx *Transaction) Verify(programID common.Address) error {
	h := tx.Hash(programID)
	if !ed25519.VerifyAddress(tx.Payer, h.Bytes(), tx.Signature) {
		return fmt.Errorf("payer %s: bad signature: %w", tx.Payer, treeerrors.ErrUnauthorized)
	}
	return nil
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("Transaction{payer: %s, region: %s, data: %d bytes}", tx.Payer.String_short(), tx.Region.String_short(), len(tx.Data))
}
