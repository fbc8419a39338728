package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/google/uuid"
)

type UserOperationStatus string

const (
	UserOperationStatusPending UserOperationStatus = "pending"
	UserOperationStatusSuccess UserOperationStatus = "success"
	UserOperationStatusFailed  UserOperationStatus = "failed"
)

// UserOperationRecord journals a submitted user operation.
type UserOperationRecord struct {
	ID            uuid.UUID           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ChainID       int64               `gorm:"not null"`
	Sender        string              `gorm:"type:varchar(42);not null"`
	Nonce         string              `gorm:"type:varchar(80);not null"`
	UserOpHash    string              `gorm:"type:varchar(66);not null;uniqueIndex"`
	EntryPoint    string              `gorm:"type:varchar(42);not null"`
	UserOperation json.RawMessage     `gorm:"type:jsonb;not null"`
	Status        UserOperationStatus `gorm:"type:varchar(16);not null;default:pending"`
	TxHash        *string             `gorm:"type:varchar(66)"`
	ErrMsg        *string             `gorm:"type:text"`
	CreatedAt     time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UserOperationRecord) TableName() string {
	return "user_operations"
}

func (r *UserOperationRecord) GetUserOperation() (*erc4337.UserOperation, error) {
	var op erc4337.UserOperation
	if err := json.Unmarshal(r.UserOperation, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user operation: %w", err)
	}
	return &op, nil
}

// OperationStatus is the cached view of a tracked user operation.
type OperationStatus struct {
	UserOpHash string              `json:"userOpHash"`
	ChainID    int64               `json:"chainId"`
	Sender     string              `json:"sender"`
	Status     UserOperationStatus `json:"status"`
	TxHash     string              `json:"txHash,omitempty"`
	Error      string              `json:"error,omitempty"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func (r *UserOperationRecord) ToStatus() *OperationStatus {
	status := &OperationStatus{
		UserOpHash: r.UserOpHash,
		ChainID:    r.ChainID,
		Sender:     r.Sender,
		Status:     r.Status,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.TxHash != nil {
		status.TxHash = *r.TxHash
	}
	if r.ErrMsg != nil {
		status.Error = *r.ErrMsg
	}
	return status
}
