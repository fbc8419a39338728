package service

import (
	"context"
	"testing"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetworks() []domain.Network {
	sepolia := testNetwork
	sepolia.Name = "sepolia"
	sepolia.ChainID = 11155111

	sponsored := testNetwork
	sponsored.PaymasterURL = "http://127.0.0.1:4338"

	return []domain.Network{sepolia, sponsored}
}

func TestBlockchainService_Network(t *testing.T) {
	svc := NewBlockchainService(testNetworks())

	network, err := svc.Network(84532)
	require.NoError(t, err)
	assert.Equal(t, "testnet", network.Name)

	_, err = svc.Network(1)
	assertDomainError(t, err, "PARAMETER_INVALID")

	networks := svc.Networks()
	require.Len(t, networks, 2)
	assert.Equal(t, int64(84532), networks[0].ChainID)
	assert.Equal(t, int64(11155111), networks[1].ChainID)
}

func TestBlockchainService_ClientPool(t *testing.T) {
	svc := NewBlockchainService(testNetworks())
	defer svc.Close()
	ctx := context.Background()

	// http transports connect lazily, so dialing needs no live node
	first, err := svc.GetClient(ctx, 84532)
	require.NoError(t, err)
	second, err := svc.GetClient(ctx, 84532)
	require.NoError(t, err)
	assert.Same(t, first, second)

	bundler, err := svc.GetBundlerClient(ctx, 84532)
	require.NoError(t, err)
	assert.NotNil(t, bundler)

	_, err = svc.GetClient(ctx, 1)
	assertDomainError(t, err, "PARAMETER_INVALID")

	svc.Close()
	third, err := svc.GetClient(ctx, 84532)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestBlockchainService_Pipeline(t *testing.T) {
	svc := NewBlockchainService(testNetworks())
	defer svc.Close()
	journal := &fakeJournal{}
	svc.SetJournal(journal)
	ctx := context.Background()

	sponsored, err := svc.Pipeline(ctx, 84532)
	require.NoError(t, err)
	assert.Equal(t, int64(84532), sponsored.Network().ChainID)
	assert.NotNil(t, sponsored.paymaster)
	assert.Equal(t, journal, sponsored.journal)

	plain, err := svc.Pipeline(ctx, 11155111)
	require.NoError(t, err)
	assert.Nil(t, plain.paymaster, "paymaster must be a nil interface when not configured")

	planner, err := svc.Planner(ctx, 84532)
	require.NoError(t, err)
	assert.Equal(t, int64(84532), planner.network.ChainID)
}
