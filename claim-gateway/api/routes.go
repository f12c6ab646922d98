package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

// Reader is the cached read side of the vault.
type Reader interface {
	Schedule(ctx context.Context, token common.Address) (vesting.Schedule, error)
	Vested(ctx context.Context, token common.Address) (*big.Int, uint64, error)
	Claimable(ctx context.Context, user, token common.Address) (*big.Int, error)
	IsEligible(ctx context.Context, token, user common.Address) (bool, error)
}

type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) *orchestrator.Outcome
}

type Operations interface {
	Snapshot() []orchestrator.Operation
}

type Handler struct {
	reader     Reader
	runner     Runner
	operations Operations
	health     func(ctx context.Context) error
}

func NewHandler(reader Reader, runner Runner, operations Operations, health func(ctx context.Context) error) *Handler {
	return &Handler{reader: reader, runner: runner, operations: operations, health: health}
}

func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.GET("/schedules/:token", h.Schedule)
	v1.GET("/vested/:token", h.Vested)
	v1.GET("/claimable/:token/:user", h.Claimable)
	v1.GET("/eligible/:token/:user", h.Eligible)
	v1.GET("/operations", h.Operations)
	v1.POST("/claims/preflight", h.Preflight)
}
