package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type chainClients struct {
	eth       *ethclient.Client
	bundler   *erc4337.BundlerClient
	paymaster *erc4337.PaymasterClient
}

func (c *chainClients) close() {
	if c.eth != nil {
		c.eth.Close()
	}
	if c.bundler != nil {
		c.bundler.Close()
	}
	if c.paymaster != nil {
		c.paymaster.Close()
	}
}

// BlockchainService owns the configured networks and a pool of chain, bundler
// and paymaster clients keyed by chain id.
type BlockchainService struct {
	networks   map[int64]domain.Network
	journal    OperationJournal
	clientPool map[int64]*chainClients
	mu         sync.RWMutex
}

func NewBlockchainService(networks []domain.Network) *BlockchainService {
	return &BlockchainService{
		networks:   lo.KeyBy(networks, func(n domain.Network) int64 { return n.ChainID }),
		clientPool: make(map[int64]*chainClients),
	}
}

// SetJournal makes every pipeline handed out afterwards journal its submissions.
func (b *BlockchainService) SetJournal(journal OperationJournal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.journal = journal
}

// logger wraps the execution context with component info
func (b *BlockchainService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("service", "blockchain").Logger()
	return &l
}

func (b *BlockchainService) Network(chainId int64) (domain.Network, error) {
	network, ok := b.networks[chainId]
	if !ok {
		return domain.Network{}, domain.NewError(domain.ErrorCodeParameterInvalid,
			fmt.Errorf("unsupported chain id: %d", chainId), domain.WithMsg("Unsupported chain id"))
	}
	return network, nil
}

// Networks returns the configured networks ordered by chain id.
func (b *BlockchainService) Networks() []domain.Network {
	networks := lo.Values(b.networks)
	sort.Slice(networks, func(i, j int) bool { return networks[i].ChainID < networks[j].ChainID })
	return networks
}

func (b *BlockchainService) getClients(ctx context.Context, chainId int64) (*chainClients, error) {
	b.mu.RLock()
	if clients, exists := b.clientPool[chainId]; exists {
		b.mu.RUnlock()
		return clients, nil
	}
	b.mu.RUnlock()

	network, err := b.Network(chainId)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check pattern
	if clients, exists := b.clientPool[chainId]; exists {
		return clients, nil
	}

	clients := &chainClients{}

	clients.eth, err = ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		b.logger(ctx).Error().Err(err).Int64("chain_id", chainId).Msg("failed to dial chain rpc")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to dial rpc for chain %d: %w", chainId, err))
	}

	clients.bundler, err = erc4337.DialBundler(ctx, network.BundlerURL)
	if err != nil {
		clients.close()
		b.logger(ctx).Error().Err(err).Int64("chain_id", chainId).Msg("failed to dial bundler")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to dial bundler for chain %d: %w", chainId, err))
	}

	if network.HasPaymaster() {
		clients.paymaster, err = erc4337.DialPaymaster(ctx, network.PaymasterURL)
		if err != nil {
			clients.close()
			b.logger(ctx).Error().Err(err).Int64("chain_id", chainId).Msg("failed to dial paymaster")
			return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to dial paymaster for chain %d: %w", chainId, err))
		}
	}

	b.clientPool[chainId] = clients

	b.logger(ctx).Debug().
		Int64("chain_id", chainId).
		Str("network", network.Name).
		Bool("paymaster", clients.paymaster != nil).
		Msg("connected chain clients")

	return clients, nil
}

func (b *BlockchainService) GetClient(ctx context.Context, chainId int64) (*ethclient.Client, error) {
	clients, err := b.getClients(ctx, chainId)
	if err != nil {
		return nil, err
	}
	return clients.eth, nil
}

func (b *BlockchainService) GetBundlerClient(ctx context.Context, chainId int64) (erc4337.Bundler, error) {
	clients, err := b.getClients(ctx, chainId)
	if err != nil {
		return nil, err
	}
	return clients.bundler, nil
}

// Pipeline returns the user operation pipeline of a network wired to the
// pooled clients.
func (b *BlockchainService) Pipeline(ctx context.Context, chainId int64) (*UserOperationService, error) {
	clients, err := b.getClients(ctx, chainId)
	if err != nil {
		return nil, err
	}
	network := b.networks[chainId]

	b.mu.RLock()
	journal := b.journal
	b.mu.RUnlock()

	config := UserOperationConfig{
		Network: network,
		Code:    clients.eth,
		Caller:  clients.eth,
		Nonces:  erc4337.NewEntryPoint(network.EntryPoint, clients.eth),
		Bundler: clients.bundler,
		Journal: journal,
	}
	if clients.paymaster != nil {
		config.Paymaster = clients.paymaster
	}
	return NewUserOperationService(config), nil
}

func (b *BlockchainService) Planner(ctx context.Context, chainId int64) (*DeploymentPlanner, error) {
	clients, err := b.getClients(ctx, chainId)
	if err != nil {
		return nil, err
	}
	return NewDeploymentPlanner(b.networks[chainId], clients.eth), nil
}

// PlanAccount plans the deployment of a new account on chainId.
func (b *BlockchainService) PlanAccount(ctx context.Context, chainId int64, req DeploymentRequest) (*AccountPlan, error) {
	planner, err := b.Planner(ctx, chainId)
	if err != nil {
		return nil, err
	}
	return planner.Plan(ctx, req)
}

// Close closes all client connections and cleans up the connection pool
func (b *BlockchainService) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clientPool {
		clients.close()
	}
	b.clientPool = make(map[int64]*chainClients)
}
