package handler

import (
	"context"
	"errors"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type StatusReader interface {
	Status(ctx context.Context, userOpHash common.Hash) (*domain.OperationStatus, error)
}

type UserOperationHandler struct {
	tracker StatusReader
}

func NewUserOperationHandler(tracker StatusReader) *UserOperationHandler {
	return &UserOperationHandler{tracker: tracker}
}

// GetStatus godoc
// @Summary Get user operation status
// @Description Status of a user operation submitted through this service
// @Tags userops
// @Produce json
// @Param hash path string true "User operation hash"
// @Success 200 {object} StandardResponse{data=domain.OperationStatus}
// @Failure 400 {object} StandardResponse
// @Failure 404 {object} StandardResponse
// @Router /userops/{hash} [get]
func (h *UserOperationHandler) GetStatus(c *gin.Context) {
	raw := c.Param("hash")
	hash, ok := parseHash(raw)
	if !ok {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid,
			errors.New("invalid user operation hash"), domain.WithMsg("hash must be 32 bytes of hex")))
		return
	}

	status, err := h.tracker.Status(c.Request.Context(), hash)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, status)
}

func parseHash(s string) (common.Hash, bool) {
	b, err := decodeHex(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}
