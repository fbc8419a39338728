package repository

import (
	"context"
	"errors"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserOperationRepository struct {
	db *gorm.DB
}

func NewUserOperationRepository(db *gorm.DB) *UserOperationRepository {
	return &UserOperationRepository{db: db}
}

func (r *UserOperationRepository) CreateUserOperation(ctx context.Context, record *domain.UserOperationRecord) error {
	if record.Status == "" {
		record.Status = domain.UserOperationStatusPending
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByUserOpHash returns nil when no operation has the hash.
func (r *UserOperationRepository) FindByUserOpHash(ctx context.Context, userOpHash string) (*domain.UserOperationRecord, error) {
	var record domain.UserOperationRecord
	err := r.db.WithContext(ctx).Where("user_op_hash = ?", userOpHash).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindPending retrieves the operations still waiting for a receipt, oldest first
func (r *UserOperationRepository) FindPending(ctx context.Context) ([]*domain.UserOperationRecord, error) {
	var records []*domain.UserOperationRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.UserOperationStatusPending).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatus sets the final status of an operation. txHash and errMsg are
// only written when provided.
func (r *UserOperationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserOperationStatus, txHash, errMsg *string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if txHash != nil {
		updates["tx_hash"] = *txHash
	}
	if errMsg != nil {
		updates["err_msg"] = *errMsg
	}

	return r.db.WithContext(ctx).
		Model(&domain.UserOperationRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}
