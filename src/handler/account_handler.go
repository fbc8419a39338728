package handler

import (
	"context"
	"fmt"

	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethaccount/recovery/src/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AccountPlanner interface {
	PlanAccount(ctx context.Context, chainId int64, req service.DeploymentRequest) (*service.AccountPlan, error)
}

type AccountHandler struct {
	planner AccountPlanner
}

func NewAccountHandler(planner AccountPlanner) *AccountHandler {
	return &AccountHandler{planner: planner}
}

func (h *AccountHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "account").Logger()
	return &l
}

type PlanAccountRequest struct {
	ChainID          int64            `json:"chainId" binding:"required"`
	SaltNonce        decimal.Decimal  `json:"saltNonce"`
	Owners           []string         `json:"owners" binding:"required,min=1,dive,eth_addr"`
	Threshold        uint64           `json:"threshold" binding:"required,min=1"`
	Validators       []ModuleRequest  `json:"validators" binding:"required,min=1,dive"`
	Executors        []ModuleRequest  `json:"executors" binding:"dive"`
	Fallbacks        []ModuleRequest  `json:"fallbacks" binding:"dive"`
	Hooks            []ModuleRequest  `json:"hooks" binding:"dive"`
	Registry         *RegistryRequest `json:"registry"`
	InitialExecution ExecutionRequest `json:"initialExecution" binding:"required"`
}

func (r PlanAccountRequest) toDeploymentRequest() (service.DeploymentRequest, error) {
	saltNonce, err := parseUint(r.SaltNonce)
	if err != nil {
		return service.DeploymentRequest{}, fmt.Errorf("saltNonce: %w", err)
	}

	req := service.DeploymentRequest{
		SaltNonce: saltNonce,
		Safe: safe7579.SafeConfig{
			Owners:    toAddresses(r.Owners),
			Threshold: r.Threshold,
		},
		Registry: r.Registry.toRegistryConfig(),
	}
	if req.Validators, err = toModuleInits(r.Validators); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Executors, err = toModuleInits(r.Executors); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Fallbacks, err = toModuleInits(r.Fallbacks); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Hooks, err = toModuleInits(r.Hooks); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.InitialExecution, err = r.InitialExecution.toExecution(); err != nil {
		return service.DeploymentRequest{}, fmt.Errorf("initialExecution: %w", err)
	}
	return req, nil
}

// Plan godoc
// @Summary Plan a Safe7579 account
// @Description Compute the counterfactual address, init code and first call of a new Safe7579 account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body PlanAccountRequest true "Account configuration"
// @Success 200 {object} StandardResponse{data=service.AccountPlan}
// @Failure 400 {object} StandardResponse
// @Failure 501 {object} StandardResponse
// @Failure 502 {object} StandardResponse
// @Router /accounts/plan [post]
func (h *AccountHandler) Plan() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body PlanAccountRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			respondWithBindingError(c, err)
			return
		}

		req, err := body.toDeploymentRequest()
		if err != nil {
			respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err))
			return
		}

		plan, err := h.planner.PlanAccount(ctx, body.ChainID, req)
		if err != nil {
			respondWithError(c, err)
			return
		}

		h.logger(ctx).Info().
			Int64("chain_id", body.ChainID).
			Str("address", plan.Address.Hex()).
			Msg("account planned")

		respondWithSuccess(c, plan)
	}
}
