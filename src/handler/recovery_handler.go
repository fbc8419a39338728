package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethaccount/recovery/src/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RecoveryEnabler interface {
	EnableRecovery(ctx context.Context, req service.EnableRecoveryRequest) (*service.EnableRecoveryResult, error)
}

type RecoveryHandler struct {
	recovery RecoveryEnabler
}

func NewRecoveryHandler(recovery RecoveryEnabler) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery}
}

func (h *RecoveryHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "recovery").Logger()
	return &l
}

type EnableRecoveryRequest struct {
	ChainID  int64           `json:"chainId" binding:"required"`
	Account  string          `json:"account" binding:"required,eth_addr"`
	InitCode string          `json:"initCode"`
	Recovery RecoveryRequest `json:"recovery"`
}

// EnableRecovery godoc
// @Summary Enable email recovery
// @Description Enable the Safe7579 adapter on a Safe and install the email recovery executor in one user operation signed by the server owner key
// @Tags recovery
// @Accept json
// @Produce json
// @Param X-API-Secret header string true "Shared API secret"
// @Param request body EnableRecoveryRequest true "Account and guardian policy"
// @Success 202 {object} StandardResponse{data=service.EnableRecoveryResult}
// @Failure 400 {object} StandardResponse
// @Failure 401 {object} StandardResponse
// @Failure 501 {object} StandardResponse
// @Failure 502 {object} StandardResponse
// @Router /recovery/enable [post]
func (h *RecoveryHandler) EnableRecovery(c *gin.Context) {
	ctx := c.Request.Context()
	logger := h.logger(ctx).With().Str("func", "EnableRecovery").Logger()

	var body EnableRecoveryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Debug().Err(err).Msg("invalid request payload")
		respondWithBindingError(c, err)
		return
	}

	initCode, err := decodeHex(body.InitCode)
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, fmt.Errorf("initCode: %w", err)))
		return
	}
	config, err := body.Recovery.toRecoveryConfig()
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err))
		return
	}

	result, err := h.recovery.EnableRecovery(ctx, service.EnableRecoveryRequest{
		ChainID: body.ChainID,
		Account: domain.Account{
			Address:  common.HexToAddress(body.Account),
			InitCode: initCode,
		},
		Recovery: config,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to enable recovery")
		respondWithError(c, err)
		return
	}

	logger.Info().
		Int64("chain_id", body.ChainID).
		Str("account", body.Account).
		Str("user_op_hash", result.UserOpHash.Hex()).
		Msg("recovery setup submitted")

	respondWithSuccessAndStatus(c, http.StatusAccepted, result, "User operation submitted")
}
