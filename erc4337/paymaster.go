package erc4337

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Sponsorship is the paymaster's answer to pm_sponsorUserOperation. Gas limits
// are re-estimated by the paymaster with its own fields in place.
type Sponsorship struct {
	Paymaster                     common.Address `json:"paymaster"`
	PaymasterData                 hexutil.Bytes  `json:"paymasterData"`
	PaymasterVerificationGasLimit *hexutil.Big   `json:"paymasterVerificationGasLimit"`
	PaymasterPostOpGasLimit       *hexutil.Big   `json:"paymasterPostOpGasLimit"`
	PreVerificationGas            *hexutil.Big   `json:"preVerificationGas"`
	VerificationGasLimit          *hexutil.Big   `json:"verificationGasLimit"`
	CallGasLimit                  *hexutil.Big   `json:"callGasLimit"`
}

// Apply copies the sponsorship into op. Gas limits the paymaster left out keep
// their current value.
func (s *Sponsorship) Apply(op *UserOperation) {
	paymaster := s.Paymaster
	op.Paymaster = &paymaster
	op.PaymasterData = s.PaymasterData
	op.PaymasterVerificationGasLimit = s.PaymasterVerificationGasLimit
	op.PaymasterPostOpGasLimit = s.PaymasterPostOpGasLimit
	if s.PreVerificationGas != nil {
		op.PreVerificationGas = s.PreVerificationGas
	}
	if s.VerificationGasLimit != nil {
		op.VerificationGasLimit = s.VerificationGasLimit
	}
	if s.CallGasLimit != nil {
		op.CallGasLimit = s.CallGasLimit
	}
}

type Paymaster interface {
	SponsorUserOperation(ctx context.Context, op *UserOperation, entryPoint common.Address) (*Sponsorship, error)
}

type PaymasterClient struct {
	client *rpc.Client
}

func DialPaymaster(ctx context.Context, rawurl string) (*PaymasterClient, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return &PaymasterClient{c}, nil
}

func NewPaymasterClient(c *rpc.Client) *PaymasterClient {
	return &PaymasterClient{c}
}

func (p *PaymasterClient) Close() {
	p.client.Close()
}

func (p *PaymasterClient) SponsorUserOperation(ctx context.Context, op *UserOperation, entryPoint common.Address) (*Sponsorship, error) {
	var result Sponsorship
	if err := p.client.CallContext(ctx, &result, "pm_sponsorUserOperation", op, entryPoint); err != nil {
		return nil, err
	}
	return &result, nil
}
