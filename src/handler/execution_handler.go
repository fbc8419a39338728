package handler

import (
	"context"
	"fmt"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExecutionHandler exposes the ERC-7579 call encoder. It needs no chain access.
type ExecutionHandler struct{}

func NewExecutionHandler() *ExecutionHandler {
	return &ExecutionHandler{}
}

func (h *ExecutionHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "execution").Logger()
	return &l
}

type EncodeExecutionsRequest struct {
	Executions []ExecutionRequest `json:"executions" binding:"required,min=1,dive"`
}

type EncodeExecutionsResponse struct {
	CallType string        `json:"callType"`
	CallData hexutil.Bytes `json:"callData"`
}

// Encode godoc
// @Summary Encode executions
// @Description Encode one or more calls as ERC-7579 execute calldata. One call uses single mode, more use batch mode.
// @Tags executions
// @Accept json
// @Produce json
// @Param request body EncodeExecutionsRequest true "Executions"
// @Success 200 {object} StandardResponse{data=EncodeExecutionsResponse}
// @Failure 400 {object} StandardResponse
// @Router /executions/encode [post]
func (h *ExecutionHandler) Encode(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "Encode").Logger()

	var req EncodeExecutionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debug().Err(err).Msg("invalid request payload")
		respondWithBindingError(c, err)
		return
	}

	executions := make([]erc7579.Execution, 0, len(req.Executions))
	for i, e := range req.Executions {
		execution, err := e.toExecution()
		if err != nil {
			respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, fmt.Errorf("executions[%d]: %w", i, err)))
			return
		}
		executions = append(executions, execution)
	}

	callData, err := erc7579.Encode(executions)
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err))
		return
	}

	callType := erc7579.CallTypeSingle
	if len(executions) > 1 {
		callType = erc7579.CallTypeBatch
	}

	respondWithSuccess(c, EncodeExecutionsResponse{
		CallType: callType.String(),
		CallData: callData,
	})
}

type DecodeExecutionsRequest struct {
	CallData string `json:"callData" binding:"required"`
}

type DecodeExecutionsResponse struct {
	CallType   string              `json:"callType"`
	Executions []ExecutionResponse `json:"executions"`
}

// Decode godoc
// @Summary Decode execute calldata
// @Description Decode ERC-7579 execute calldata back into its calls
// @Tags executions
// @Accept json
// @Produce json
// @Param request body DecodeExecutionsRequest true "Calldata"
// @Success 200 {object} StandardResponse{data=DecodeExecutionsResponse}
// @Failure 400 {object} StandardResponse
// @Router /executions/decode [post]
func (h *ExecutionHandler) Decode(c *gin.Context) {
	var req DecodeExecutionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindingError(c, err)
		return
	}

	data, err := decodeHex(req.CallData)
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("callData is not hex")))
		return
	}

	callType, executions, err := erc7579.Decode(data)
	if err != nil {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err))
		return
	}

	resp := DecodeExecutionsResponse{
		CallType:   callType.String(),
		Executions: make([]ExecutionResponse, 0, len(executions)),
	}
	for _, e := range executions {
		resp.Executions = append(resp.Executions, newExecutionResponse(e))
	}
	respondWithSuccess(c, resp)
}
