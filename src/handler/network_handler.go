package handler

import (
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type NetworkLister interface {
	Networks() []domain.Network
}

type NetworkHandler struct {
	networks NetworkLister
}

func NewNetworkHandler(networks NetworkLister) *NetworkHandler {
	return &NetworkHandler{networks: networks}
}

// NetworkResponse omits the RPC, bundler and paymaster URLs since they may
// carry API keys.
type NetworkResponse struct {
	Name              string         `json:"name"`
	ChainID           int64          `json:"chainId"`
	EntryPoint        common.Address `json:"entryPoint"`
	Sponsored         bool           `json:"sponsored"`
	Safe7579          common.Address `json:"safe7579"`
	Safe7579Launchpad common.Address `json:"safe7579Launchpad"`
	OwnableValidator  common.Address `json:"ownableValidator"`
	RecoveryModule    common.Address `json:"recoveryModule"`
	CanDeploy         bool           `json:"canDeploy"`
}

// ListNetworks godoc
// @Summary List networks
// @Description Networks this service can build user operations for
// @Tags networks
// @Produce json
// @Success 200 {object} StandardResponse{data=[]NetworkResponse}
// @Router /networks [get]
func (h *NetworkHandler) ListNetworks(c *gin.Context) {
	respondWithSuccess(c, lo.Map(h.networks.Networks(), func(n domain.Network, _ int) NetworkResponse {
		return NetworkResponse{
			Name:              n.Name,
			ChainID:           n.ChainID,
			EntryPoint:        n.EntryPoint,
			Sponsored:         n.HasPaymaster(),
			Safe7579:          n.Contracts.Safe7579,
			Safe7579Launchpad: n.Contracts.Safe7579Launchpad,
			OwnableValidator:  n.Contracts.OwnableValidator,
			RecoveryModule:    n.Contracts.EmailRecoveryModule,
			CanDeploy:         len(n.MissingDeploymentContracts()) == 0,
		}
	}))
}
