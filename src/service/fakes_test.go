package service

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

var (
	testNetwork = domain.Network{
		Name:       "testnet",
		ChainID:    84532,
		RPCURL:     "http://127.0.0.1:8545",
		BundlerURL: "http://127.0.0.1:4337",
		EntryPoint: erc4337.EntryPointV07,
		Contracts: domain.Contracts{
			SafeSingleton:       common.HexToAddress("0xC7a5a28849D7309d7E97Ae398C798A9C82db4138"),
			SafeProxyFactory:    common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"),
			Safe7579:            common.HexToAddress("0x7579EE8307284F293B1927136486880611F20002"),
			Safe7579Launchpad:   common.HexToAddress("0x7579011aB74c46090561ea277Ba79D510c6C00ff"),
			Registry:            common.HexToAddress("0x000000000069E2a187AEFFb852bF3cCdC95151B2"),
			OwnableValidator:    common.HexToAddress("0x2483DA3A338895199E5e538530213157e931Bf06"),
			EmailRecoveryModule: common.HexToAddress("0x08E8f1E2AAd3D0bA2B95b3E5bC0B7C4d5C7B7A9a"),
		},
	}
	testSender = common.HexToAddress("0x1234567890123456789012345678901234567890")
)

type fakeCodeReader struct {
	code []byte
	err  error
}

func (f *fakeCodeReader) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return f.code, f.err
}

type fakeNonceSource struct {
	nonce *big.Int
	err   error
	keys  []*big.Int
}

func (f *fakeNonceSource) GetNonce(_ context.Context, _ common.Address, key *big.Int) (*big.Int, error) {
	f.keys = append(f.keys, new(big.Int).Set(key))
	if f.err != nil {
		return nil, f.err
	}
	return f.nonce, nil
}

type fakeBundler struct {
	prices       *erc4337.GasPriceTiers
	estimates    *erc4337.GasEstimates
	hash         common.Hash
	receipt      *erc4337.UserOperationReceipt
	priceErr     error
	estimateErr  error
	sendErr      error
	receiptErr   error
	estimatedOps []*erc4337.UserOperation
	sentOps      []*erc4337.UserOperation
}

func newFakeBundler() *fakeBundler {
	return &fakeBundler{
		prices: &erc4337.GasPriceTiers{
			Slow:     erc4337.GasPrice{MaxFeePerGas: big2hex(10), MaxPriorityFeePerGas: big2hex(1)},
			Standard: erc4337.GasPrice{MaxFeePerGas: big2hex(20), MaxPriorityFeePerGas: big2hex(2)},
			Fast:     erc4337.GasPrice{MaxFeePerGas: big2hex(30), MaxPriorityFeePerGas: big2hex(3)},
		},
		estimates: &erc4337.GasEstimates{
			PreVerificationGas:   big2hex(45_000),
			VerificationGasLimit: big2hex(350_000),
			CallGasLimit:         big2hex(120_000),
		},
		hash: common.HexToHash("0xa1b2c3"),
	}
}

func (f *fakeBundler) ChainId(_ context.Context) (*big.Int, error) {
	return big.NewInt(testNetwork.ChainID), nil
}

func (f *fakeBundler) EstimateUserOperationGas(_ context.Context, op *erc4337.UserOperation, _ common.Address) (*erc4337.GasEstimates, error) {
	f.estimatedOps = append(f.estimatedOps, op.Copy())
	if f.estimateErr != nil {
		return nil, f.estimateErr
	}
	return f.estimates, nil
}

func (f *fakeBundler) GetUserOperationGasPrice(_ context.Context) (*erc4337.GasPriceTiers, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.prices, nil
}

func (f *fakeBundler) SendUserOperation(_ context.Context, op *erc4337.UserOperation, _ common.Address) (common.Hash, error) {
	f.sentOps = append(f.sentOps, op.Copy())
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	return f.hash, nil
}

func (f *fakeBundler) GetUserOperationReceipt(_ context.Context, _ common.Hash) (*erc4337.UserOperationReceipt, error) {
	return f.receipt, f.receiptErr
}

type fakePaymaster struct {
	sponsorship *erc4337.Sponsorship
	err         error
}

func (f *fakePaymaster) SponsorUserOperation(_ context.Context, _ *erc4337.UserOperation, _ common.Address) (*erc4337.Sponsorship, error) {
	return f.sponsorship, f.err
}

type fakeValidator struct {
	address common.Address
	mock    []byte
	sig     []byte
	err     error
	hashes  []common.Hash
}

func newFakeValidator(address common.Address) *fakeValidator {
	return &fakeValidator{
		address: address,
		mock:    common.RightPadBytes([]byte{0xff}, 65),
		sig:     common.RightPadBytes([]byte{0x5e}, 65),
	}
}

func (f *fakeValidator) Address() common.Address { return f.address }

func (f *fakeValidator) MockSignature() []byte { return f.mock }

func (f *fakeValidator) SignMessage(_ context.Context, hash common.Hash, _ domain.Account) ([]byte, error) {
	f.hashes = append(f.hashes, hash)
	if f.err != nil {
		return nil, f.err
	}
	return f.sig, nil
}

type fakeJournal struct {
	records []common.Hash
	err     error
}

func (f *fakeJournal) Record(_ context.Context, _ domain.Network, _ *erc4337.UserOperation, hash common.Hash) error {
	f.records = append(f.records, hash)
	return f.err
}

// fakeCaller answers eth_call by function selector.
type fakeCaller struct {
	responses map[string][]byte
	errs      map[string]error
	calls     []ethereum.CallMsg
}

func (f *fakeCaller) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	selector := hexutil.Encode(msg.Data[:4])
	if err := f.errs[selector]; err != nil {
		return nil, err
	}
	return f.responses[selector], nil
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.UserOperationRecord
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.UserOperationRecord)}
}

func (f *fakeStore) CreateUserOperation(_ context.Context, record *domain.UserOperationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	record.ID = uuid.New()
	stored := *record
	f.records[record.UserOpHash] = &stored
	return nil
}

func (f *fakeStore) FindByUserOpHash(_ context.Context, userOpHash string) (*domain.UserOperationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[userOpHash]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeStore) FindPending(_ context.Context) ([]*domain.UserOperationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*domain.UserOperationRecord
	for _, record := range f.records {
		if record.Status == domain.UserOperationStatusPending {
			copied := *record
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.UserOperationStatus, txHash, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.ID == id {
			record.Status = status
			record.TxHash = txHash
			record.ErrMsg = errMsg
		}
	}
	return nil
}

type fakeCache struct {
	statuses map[string]*domain.OperationStatus
	gets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[string]*domain.OperationStatus)}
}

func (f *fakeCache) GetStatus(_ context.Context, userOpHash string) (*domain.OperationStatus, error) {
	f.gets++
	return f.statuses[userOpHash], nil
}

func (f *fakeCache) SetStatus(_ context.Context, status *domain.OperationStatus) error {
	copied := *status
	f.statuses[status.UserOpHash] = &copied
	return nil
}

type fakeBundlerProvider struct {
	bundler erc4337.Bundler
}

func (f *fakeBundlerProvider) GetBundlerClient(_ context.Context, _ int64) (erc4337.Bundler, error) {
	return f.bundler, nil
}

func big2hex(v int64) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(v))
}
