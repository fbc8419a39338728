package erc4337

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// EntryPointV07 is the canonical v0.7 EntryPoint deployment.
var EntryPointV07 = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

var (
	ErrShortInitCode = errors.New("init code shorter than a factory address")
	ErrGasOutOfRange = errors.New("gas value does not fit in 128 bits")
)

// UserOperation is the unpacked v0.7 user operation sent to bundlers.
type UserOperation struct {
	Sender                        common.Address  `json:"sender"`
	Nonce                         *hexutil.Big    `json:"nonce"`
	Factory                       *common.Address `json:"factory,omitempty"`
	FactoryData                   hexutil.Bytes   `json:"factoryData,omitempty"`
	CallData                      hexutil.Bytes   `json:"callData"`
	CallGasLimit                  *hexutil.Big    `json:"callGasLimit"`
	VerificationGasLimit          *hexutil.Big    `json:"verificationGasLimit"`
	PreVerificationGas            *hexutil.Big    `json:"preVerificationGas"`
	MaxPriorityFeePerGas          *hexutil.Big    `json:"maxPriorityFeePerGas"`
	MaxFeePerGas                  *hexutil.Big    `json:"maxFeePerGas"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *hexutil.Big    `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big    `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 hexutil.Bytes   `json:"paymasterData,omitempty"`
	Signature                     hexutil.Bytes   `json:"signature"`
}

type userOperationAlias UserOperation

// userOperationJSON overlays the quantity fields of UserOperation with their
// hex string form. Bundlers expect a 32-byte nonce and minimal hex elsewhere.
type userOperationJSON struct {
	Nonce                         string `json:"nonce"`
	CallGasLimit                  string `json:"callGasLimit"`
	VerificationGasLimit          string `json:"verificationGasLimit"`
	PreVerificationGas            string `json:"preVerificationGas"`
	MaxPriorityFeePerGas          string `json:"maxPriorityFeePerGas"`
	MaxFeePerGas                  string `json:"maxFeePerGas"`
	PaymasterVerificationGasLimit string `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       string `json:"paymasterPostOpGasLimit,omitempty"`
	*userOperationAlias
}

type quantityField struct {
	name string
	str  *string
	val  **hexutil.Big
}

func (j *userOperationJSON) quantities() []quantityField {
	op := j.userOperationAlias
	return []quantityField{
		{"callGasLimit", &j.CallGasLimit, &op.CallGasLimit},
		{"verificationGasLimit", &j.VerificationGasLimit, &op.VerificationGasLimit},
		{"preVerificationGas", &j.PreVerificationGas, &op.PreVerificationGas},
		{"maxPriorityFeePerGas", &j.MaxPriorityFeePerGas, &op.MaxPriorityFeePerGas},
		{"maxFeePerGas", &j.MaxFeePerGas, &op.MaxFeePerGas},
		{"paymasterVerificationGasLimit", &j.PaymasterVerificationGasLimit, &op.PaymasterVerificationGasLimit},
		{"paymasterPostOpGasLimit", &j.PaymasterPostOpGasLimit, &op.PaymasterPostOpGasLimit},
	}
}

func (uo *UserOperation) MarshalJSON() ([]byte, error) {
	aux := userOperationJSON{userOperationAlias: (*userOperationAlias)(uo)}

	aux.Nonce = "0x" + common.Bytes2Hex(common.LeftPadBytes(bigOrZero(uo.Nonce).Bytes(), 32))
	for _, f := range aux.quantities() {
		if *f.val != nil {
			*f.str = fmt.Sprintf("0x%x", (*big.Int)(*f.val))
		}
	}

	return json.Marshal(aux)
}

func (uo *UserOperation) UnmarshalJSON(data []byte) error {
	aux := userOperationJSON{userOperationAlias: (*userOperationAlias)(uo)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Nonce != "" {
		nonce, err := parseHexBig(aux.Nonce)
		if err != nil {
			return fmt.Errorf("invalid nonce: %w", err)
		}
		uo.Nonce = (*hexutil.Big)(nonce)
	}
	for _, f := range aux.quantities() {
		if *f.str == "" {
			continue
		}
		v, err := parseHexBig(*f.str)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.val = (*hexutil.Big)(v)
	}

	return nil
}

// Copy returns a shallow copy of the operation. Quantities are shared, byte
// fields are duplicated so the copy can be mutated independently.
func (uo *UserOperation) Copy() *UserOperation {
	cp := *uo
	cp.FactoryData = common.CopyBytes(uo.FactoryData)
	cp.CallData = common.CopyBytes(uo.CallData)
	cp.PaymasterData = common.CopyBytes(uo.PaymasterData)
	cp.Signature = common.CopyBytes(uo.Signature)
	return &cp
}

// SetInitCode splits a packed init code into the factory fields. An empty init
// code clears them.
func (uo *UserOperation) SetInitCode(initCode []byte) error {
	if len(initCode) == 0 {
		uo.Factory = nil
		uo.FactoryData = nil
		return nil
	}
	if len(initCode) < common.AddressLength {
		return ErrShortInitCode
	}
	factory := common.BytesToAddress(initCode[:common.AddressLength])
	uo.Factory = &factory
	uo.FactoryData = common.CopyBytes(initCode[common.AddressLength:])
	return nil
}

// InitCode joins factory and factoryData the way the EntryPoint expects them.
func (uo *UserOperation) InitCode() []byte {
	if uo.Factory == nil {
		return []byte{}
	}
	return append(uo.Factory.Bytes(), uo.FactoryData...)
}

// PackedUserOp is the on-chain representation hashed by the EntryPoint.
type PackedUserOp struct {
	Sender             common.Address `json:"sender"`
	Nonce              *big.Int       `json:"nonce"`
	InitCode           hexutil.Bytes  `json:"initCode"`
	CallData           hexutil.Bytes  `json:"callData"`
	AccountGasLimits   hexutil.Bytes  `json:"accountGasLimits"`
	PreVerificationGas *big.Int       `json:"preVerificationGas"`
	GasFees            hexutil.Bytes  `json:"gasFees"`
	PaymasterAndData   hexutil.Bytes  `json:"paymasterAndData"`
	Signature          hexutil.Bytes  `json:"signature"`
}

func (puo *PackedUserOp) MarshalJSON() ([]byte, error) {
	type Alias PackedUserOp
	return json.Marshal(struct {
		Nonce              *hexutil.Big `json:"nonce"`
		PreVerificationGas *hexutil.Big `json:"preVerificationGas"`
		*Alias
	}{
		Nonce:              (*hexutil.Big)(orZero(puo.Nonce)),
		PreVerificationGas: (*hexutil.Big)(orZero(puo.PreVerificationGas)),
		Alias:              (*Alias)(puo),
	})
}

// PackUserOp packs the operation per ERC-4337 v0.7. Gas pairs are two
// left-padded uint128 values in one 32 byte word; a wider value is
// ErrGasOutOfRange.
func (uo *UserOperation) PackUserOp() (*PackedUserOp, error) {
	accountGasLimits, err := packUint128Pair("verificationGasLimit", uo.VerificationGasLimit, "callGasLimit", uo.CallGasLimit)
	if err != nil {
		return nil, err
	}
	gasFees, err := packUint128Pair("maxPriorityFeePerGas", uo.MaxPriorityFeePerGas, "maxFeePerGas", uo.MaxFeePerGas)
	if err != nil {
		return nil, err
	}

	packed := &PackedUserOp{
		Sender:             uo.Sender,
		Nonce:              bigOrZero(uo.Nonce),
		InitCode:           uo.InitCode(),
		CallData:           uo.CallData,
		AccountGasLimits:   accountGasLimits,
		PreVerificationGas: bigOrZero(uo.PreVerificationGas),
		GasFees:            gasFees,
		PaymasterAndData:   hexutil.Bytes{},
		Signature:          uo.Signature,
	}

	if uo.Paymaster != nil {
		paymasterGas, err := packUint128Pair("paymasterVerificationGasLimit", uo.PaymasterVerificationGasLimit, "paymasterPostOpGasLimit", uo.PaymasterPostOpGasLimit)
		if err != nil {
			return nil, err
		}
		pad := make([]byte, 0, common.AddressLength+32+len(uo.PaymasterData))
		pad = append(pad, uo.Paymaster.Bytes()...)
		pad = append(pad, paymasterGas...)
		pad = append(pad, uo.PaymasterData...)
		packed.PaymasterAndData = pad
	}

	return packed, nil
}

var (
	addressType = mustNewType("address")
	uint256Type = mustNewType("uint256")
	bytes32Type = mustNewType("bytes32")

	packedUserOpArgs = abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "nonce", Type: uint256Type},
		{Name: "hashInitCode", Type: bytes32Type},
		{Name: "hashCallData", Type: bytes32Type},
		{Name: "accountGasLimits", Type: bytes32Type},
		{Name: "preVerificationGas", Type: uint256Type},
		{Name: "gasFees", Type: bytes32Type},
		{Name: "hashPaymasterAndData", Type: bytes32Type},
	}
	userOpHashArgs = abi.Arguments{
		{Name: "userOpHash", Type: bytes32Type},
		{Name: "entryPoint", Type: addressType},
		{Name: "chainId", Type: uint256Type},
	}
)

// GetUserOpHash computes the v0.7 user operation hash the EntryPoint at
// entryPoint reports on chainId. The signature field is not covered.
func (uo *UserOperation) GetUserOpHash(entryPoint common.Address, chainId *big.Int) (common.Hash, error) {
	if chainId == nil {
		return common.Hash{}, errors.New("chain id is required")
	}
	packed, err := uo.PackUserOp()
	if err != nil {
		return common.Hash{}, err
	}

	inner, err := packedUserOpArgs.Pack(
		packed.Sender,
		packed.Nonce,
		crypto.Keccak256Hash(packed.InitCode),
		crypto.Keccak256Hash(packed.CallData),
		common.BytesToHash(packed.AccountGasLimits),
		packed.PreVerificationGas,
		common.BytesToHash(packed.GasFees),
		crypto.Keccak256Hash(packed.PaymasterAndData),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode user operation: %w", err)
	}

	outer, err := userOpHashArgs.Pack(crypto.Keccak256Hash(inner), entryPoint, chainId)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode user operation hash: %w", err)
	}

	return crypto.Keccak256Hash(outer), nil
}

func packUint128Pair(hiName string, hi *hexutil.Big, loName string, lo *hexutil.Big) (hexutil.Bytes, error) {
	word := make([]byte, 32)
	if err := putUint128(word[:16], hiName, hi); err != nil {
		return nil, err
	}
	if err := putUint128(word[16:], loName, lo); err != nil {
		return nil, err
	}
	return word, nil
}

func putUint128(dst []byte, name string, v *hexutil.Big) error {
	if v == nil {
		return nil
	}
	n := (*big.Int)(v)
	if n.Sign() < 0 || n.BitLen() > 128 {
		return fmt.Errorf("%w: %s = %s", ErrGasOutOfRange, name, n)
	}
	n.FillBytes(dst)
	return nil
}

func parseHexBig(s string) (*big.Int, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex string: %s", s)
	}
	return v, nil
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
