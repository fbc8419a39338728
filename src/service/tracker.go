package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserOperationStore is the durable journal. Finders return nil without an
// error when nothing matches.
type UserOperationStore interface {
	CreateUserOperation(ctx context.Context, record *domain.UserOperationRecord) error
	FindByUserOpHash(ctx context.Context, userOpHash string) (*domain.UserOperationRecord, error)
	FindPending(ctx context.Context) ([]*domain.UserOperationRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserOperationStatus, txHash, errMsg *string) error
}

// StatusCache holds recent statuses. GetStatus returns nil on a miss.
type StatusCache interface {
	GetStatus(ctx context.Context, userOpHash string) (*domain.OperationStatus, error)
	SetStatus(ctx context.Context, status *domain.OperationStatus) error
}

type BundlerProvider interface {
	GetBundlerClient(ctx context.Context, chainId int64) (erc4337.Bundler, error)
}

var ErrUserOperationNotFound = errors.New("user operation not found")

// TrackerService journals submitted user operations and resolves their
// receipts. It never resubmits.
type TrackerService struct {
	store    UserOperationStore
	cache    StatusCache
	bundlers BundlerProvider
}

func NewTrackerService(store UserOperationStore, cache StatusCache, bundlers BundlerProvider) *TrackerService {
	return &TrackerService{store: store, cache: cache, bundlers: bundlers}
}

// logger wraps the execution context with component info
func (t *TrackerService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("service", "tracker").Logger()
	return &l
}

func (t *TrackerService) Record(ctx context.Context, network domain.Network, op *erc4337.UserOperation, userOpHash common.Hash) error {
	opJSON, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal user operation: %w", err)
	}

	record := &domain.UserOperationRecord{
		ChainID:       network.ChainID,
		Sender:        op.Sender.Hex(),
		Nonce:         op.Nonce.ToInt().String(),
		UserOpHash:    userOpHash.Hex(),
		EntryPoint:    network.EntryPoint.Hex(),
		UserOperation: opJSON,
		Status:        domain.UserOperationStatusPending,
	}
	if err := t.store.CreateUserOperation(ctx, record); err != nil {
		return fmt.Errorf("failed to create user operation record: %w", err)
	}

	if err := t.cache.SetStatus(ctx, record.ToStatus()); err != nil {
		t.logger(ctx).Warn().Err(err).
			Str("user_op_hash", record.UserOpHash).
			Msg("failed to cache user operation status")
	}

	t.logger(ctx).Debug().
		Str("id", record.ID.String()).
		Str("user_op_hash", record.UserOpHash).
		Msg("recorded user operation")
	return nil
}

// Status reads the cache first and falls back to the journal.
func (t *TrackerService) Status(ctx context.Context, userOpHash common.Hash) (*domain.OperationStatus, error) {
	key := userOpHash.Hex()

	cached, err := t.cache.GetStatus(ctx, key)
	if err != nil {
		t.logger(ctx).Warn().Err(err).Str("user_op_hash", key).Msg("failed to read status cache")
	}
	if cached != nil {
		return cached, nil
	}

	record, err := t.store.FindByUserOpHash(ctx, key)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, fmt.Errorf("failed to find user operation: %w", err))
	}
	if record == nil {
		return nil, domain.NewError(domain.ErrorCodeResourceNotFound, ErrUserOperationNotFound)
	}

	status := record.ToStatus()
	if err := t.cache.SetStatus(ctx, status); err != nil {
		t.logger(ctx).Warn().Err(err).Str("user_op_hash", key).Msg("failed to cache user operation status")
	}
	return status, nil
}

// Poll resolves the receipts of every pending operation once. Operations the
// bundler has not included yet stay pending.
func (t *TrackerService) Poll(ctx context.Context) error {
	pending, err := t.store.FindPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to find pending user operations: %w", err)
	}
	if len(pending) == 0 {
		t.logger(ctx).Debug().Msg("no pending user operations")
		return nil
	}

	resolved := 0
	for _, record := range pending {
		done, err := t.resolve(ctx, record)
		if err != nil {
			t.logger(ctx).Error().Err(err).
				Str("user_op_hash", record.UserOpHash).
				Int64("chain_id", record.ChainID).
				Msg("failed to resolve user operation")
			continue
		}
		if done {
			resolved++
		}
	}

	t.logger(ctx).Debug().
		Int("pending", len(pending)).
		Int("resolved", resolved).
		Msg("polling cycle completed")
	return nil
}

func (t *TrackerService) resolve(ctx context.Context, record *domain.UserOperationRecord) (bool, error) {
	bundler, err := t.bundlers.GetBundlerClient(ctx, record.ChainID)
	if err != nil {
		return false, err
	}

	receipt, err := bundler.GetUserOperationReceipt(ctx, common.HexToHash(record.UserOpHash))
	if err != nil {
		return false, fmt.Errorf("failed to get user operation receipt: %w", err)
	}
	if receipt == nil {
		return false, nil
	}

	status := domain.UserOperationStatusSuccess
	var errMsg *string
	if !receipt.Success {
		status = domain.UserOperationStatusFailed
		reason := receipt.Reason
		if reason == "" {
			reason = "user operation reverted"
		}
		errMsg = &reason
	}
	var txHash *string
	if receipt.Receipt != nil {
		h := receipt.Receipt.TransactionHash.Hex()
		txHash = &h
	}

	if err := t.store.UpdateStatus(ctx, record.ID, status, txHash, errMsg); err != nil {
		return false, fmt.Errorf("failed to update user operation status: %w", err)
	}

	record.Status = status
	record.TxHash = txHash
	record.ErrMsg = errMsg
	record.UpdatedAt = time.Now()
	if err := t.cache.SetStatus(ctx, record.ToStatus()); err != nil {
		t.logger(ctx).Warn().Err(err).Str("user_op_hash", record.UserOpHash).Msg("failed to cache user operation status")
	}

	t.logger(ctx).Info().
		Str("user_op_hash", record.UserOpHash).
		Str("status", string(status)).
		Msg("user operation resolved")
	return true, nil
}
