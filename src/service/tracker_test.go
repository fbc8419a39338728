package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrackerFixture() (*TrackerService, *fakeStore, *fakeCache, *fakeBundler) {
	store := newFakeStore()
	cache := newFakeCache()
	bundler := newFakeBundler()
	return NewTrackerService(store, cache, &fakeBundlerProvider{bundler: bundler}), store, cache, bundler
}

func trackedOperation() *erc4337.UserOperation {
	return &erc4337.UserOperation{
		Sender:               testSender,
		Nonce:                big2hex(12),
		CallData:             hexutil.Bytes{0x01},
		CallGasLimit:         big2hex(1),
		VerificationGasLimit: big2hex(1),
		PreVerificationGas:   big2hex(1),
		MaxFeePerGas:         big2hex(1),
		MaxPriorityFeePerGas: big2hex(1),
		Signature:            hexutil.Bytes{0x5e},
	}
}

func TestTrackerService_Record(t *testing.T) {
	tracker, store, cache, _ := newTrackerFixture()
	hash := common.HexToHash("0x01")

	err := tracker.Record(context.Background(), testNetwork, trackedOperation(), hash)
	require.NoError(t, err)

	record := store.records[hash.Hex()]
	require.NotNil(t, record)
	assert.Equal(t, testNetwork.ChainID, record.ChainID)
	assert.Equal(t, testSender.Hex(), record.Sender)
	assert.Equal(t, "12", record.Nonce)
	assert.Equal(t, testNetwork.EntryPoint.Hex(), record.EntryPoint)
	assert.Equal(t, domain.UserOperationStatusPending, record.Status)

	op, err := record.GetUserOperation()
	require.NoError(t, err)
	assert.Equal(t, hexutil.Bytes{0x5e}, op.Signature)

	require.Contains(t, cache.statuses, hash.Hex())
	assert.Equal(t, domain.UserOperationStatusPending, cache.statuses[hash.Hex()].Status)
}

func TestTrackerService_RecordStoreFailure(t *testing.T) {
	tracker, store, cache, _ := newTrackerFixture()
	store.err = errors.New("connection refused")

	err := tracker.Record(context.Background(), testNetwork, trackedOperation(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, store.err)
	assert.Empty(t, cache.statuses)
}

func TestTrackerService_Status(t *testing.T) {
	hash := common.HexToHash("0x02")

	t.Run("cache hit", func(t *testing.T) {
		tracker, _, cache, _ := newTrackerFixture()
		cache.statuses[hash.Hex()] = &domain.OperationStatus{UserOpHash: hash.Hex(), Status: domain.UserOperationStatusSuccess}

		status, err := tracker.Status(context.Background(), hash)
		require.NoError(t, err)
		assert.Equal(t, domain.UserOperationStatusSuccess, status.Status)
	})

	t.Run("falls back to the journal and fills the cache", func(t *testing.T) {
		tracker, _, cache, _ := newTrackerFixture()
		require.NoError(t, tracker.Record(context.Background(), testNetwork, trackedOperation(), hash))
		delete(cache.statuses, hash.Hex())

		status, err := tracker.Status(context.Background(), hash)
		require.NoError(t, err)
		assert.Equal(t, domain.UserOperationStatusPending, status.Status)
		assert.Contains(t, cache.statuses, hash.Hex())
	})

	t.Run("unknown", func(t *testing.T) {
		tracker, _, _, _ := newTrackerFixture()

		status, err := tracker.Status(context.Background(), hash)
		assert.Nil(t, status)
		assert.ErrorIs(t, err, ErrUserOperationNotFound)
		assertDomainError(t, err, "RESOURCE_NOT_FOUND")
	})
}

func TestTrackerService_Poll(t *testing.T) {
	txHash := common.HexToHash("0xbeef")

	tests := []struct {
		name       string
		receipt    *erc4337.UserOperationReceipt
		receiptErr error
		status     domain.UserOperationStatus
		txHash     string
		errMsg     string
	}{
		{
			name:   "not included yet",
			status: domain.UserOperationStatusPending,
		},
		{
			name:    "included",
			receipt: &erc4337.UserOperationReceipt{Success: true, Receipt: &erc4337.TransactionReceipt{TransactionHash: txHash}},
			status:  domain.UserOperationStatusSuccess,
			txHash:  txHash.Hex(),
		},
		{
			name:    "reverted with reason",
			receipt: &erc4337.UserOperationReceipt{Success: false, Reason: "AA21 didn't pay prefund", Receipt: &erc4337.TransactionReceipt{TransactionHash: txHash}},
			status:  domain.UserOperationStatusFailed,
			txHash:  txHash.Hex(),
			errMsg:  "AA21 didn't pay prefund",
		},
		{
			name:    "reverted without reason",
			receipt: &erc4337.UserOperationReceipt{Success: false},
			status:  domain.UserOperationStatusFailed,
			errMsg:  "user operation reverted",
		},
		{
			name:       "bundler error keeps it pending",
			receiptErr: errors.New("timeout"),
			status:     domain.UserOperationStatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, store, cache, bundler := newTrackerFixture()
			hash := common.HexToHash("0x03")
			require.NoError(t, tracker.Record(context.Background(), testNetwork, trackedOperation(), hash))
			bundler.receipt = tt.receipt
			bundler.receiptErr = tt.receiptErr

			require.NoError(t, tracker.Poll(context.Background()))

			record := store.records[hash.Hex()]
			assert.Equal(t, tt.status, record.Status)
			assert.Equal(t, tt.status, cache.statuses[hash.Hex()].Status)
			if tt.txHash != "" {
				require.NotNil(t, record.TxHash)
				assert.Equal(t, tt.txHash, *record.TxHash)
			} else {
				assert.Nil(t, record.TxHash)
			}
			if tt.errMsg != "" {
				require.NotNil(t, record.ErrMsg)
				assert.Equal(t, tt.errMsg, *record.ErrMsg)
			} else {
				assert.Nil(t, record.ErrMsg)
			}
		})
	}
}

func TestTrackerService_PollNothingPending(t *testing.T) {
	tracker, _, _, _ := newTrackerFixture()
	assert.NoError(t, tracker.Poll(context.Background()))
}
