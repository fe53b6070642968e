package lending

import (
	"math/big"
	"sync"

	"btclend/crypto"
)

// CustodyOp records one intended token movement handed to the custody
// capability.
type CustodyOp struct {
	Kind   string
	From   crypto.Address
	To     crypto.Address
	Amount *big.Int
}

// RecordingCustody is the default TokenCustody implementation. It performs no
// real issuance; it records the intended amounts and owners so an external
// custodian (or a test) can inspect what the engine asked for.
type RecordingCustody struct {
	mu  sync.Mutex
	ops []CustodyOp
}

func NewRecordingCustody() *RecordingCustody {
	return &RecordingCustody{}
}

func (c *RecordingCustody) Mint(recipient crypto.Address, amount *big.Int) error {
	c.record(CustodyOp{Kind: "mint", To: recipient, Amount: amount})
	return nil
}

func (c *RecordingCustody) Burn(owner crypto.Address, amount *big.Int) error {
	c.record(CustodyOp{Kind: "burn", From: owner, Amount: amount})
	return nil
}

func (c *RecordingCustody) Transfer(from, to crypto.Address, amount *big.Int) error {
	c.record(CustodyOp{Kind: "transfer", From: from, To: to, Amount: amount})
	return nil
}

// Operations returns a copy of the recorded movements in call order.
func (c *RecordingCustody) Operations() []CustodyOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]CustodyOp, len(c.ops))
	copy(ops, c.ops)
	return ops
}

func (c *RecordingCustody) record(op CustodyOp) {
	if op.Amount != nil {
		op.Amount = new(big.Int).Set(op.Amount)
	}
	c.mu.Lock()
	c.ops = append(c.ops, op)
	c.mu.Unlock()
}
