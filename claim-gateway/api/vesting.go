package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/iac"
	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-gateway/util/resp"
)

type ScheduleView struct {
	Token             common.Address   `json:"token"`
	TotalAmount       string           `json:"totalAmount"`
	StartTime         uint64           `json:"startTime"`
	CliffDuration     uint64           `json:"cliffDuration"`
	VestingDuration   uint64           `json:"vestingDuration"`
	CliffEnd          uint64           `json:"cliffEnd"`
	UnlockTime        uint64           `json:"unlockTime"`
	Creator           common.Address   `json:"creator"`
	Active            bool             `json:"active"`
	EligibleAddresses []common.Address `json:"eligibleAddresses"`
}

type PreflightPayload struct {
	User   string `json:"user" binding:"required"`
	Token  string `json:"token" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, resp.ErrChain.WithData(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp.OK)
}

// Schedule returns the token's schedule. Tokens without one read back as an
// inactive zero schedule, reported as not found.
func (h *Handler) Schedule(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	s, err := h.reader.Schedule(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, resp.ErrChain.WithData(err.Error()))
		return
	}
	if !s.Active && (s.TotalAmount == nil || s.TotalAmount.Sign() == 0) {
		c.JSON(http.StatusNotFound, resp.ErrNoSchedule)
		return
	}
	eligible := s.EligibleAddresses
	if eligible == nil {
		eligible = []common.Address{}
	}
	c.JSON(http.StatusOK, resp.OK.WithData(ScheduleView{
		Token:             s.Token,
		TotalAmount:       amountString(s.TotalAmount),
		StartTime:         s.StartTime,
		CliffDuration:     s.CliffDuration,
		VestingDuration:   s.VestingDuration,
		CliffEnd:          s.CliffEnd(),
		UnlockTime:        s.UnlockTime(),
		Creator:           s.Creator,
		Active:            s.Active,
		EligibleAddresses: eligible,
	}))
}

func (h *Handler) Vested(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	vested, now, err := h.reader.Vested(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, resp.ErrChain.WithData(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp.OK.WithData(gin.H{"token": token, "vested": amountString(vested), "at": now}))
}

func (h *Handler) Claimable(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	user, ok := addressParam(c, "user")
	if !ok {
		return
	}
	claimable, err := h.reader.Claimable(c.Request.Context(), user, token)
	if err != nil {
		c.JSON(http.StatusBadGateway, resp.ErrChain.WithData(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp.OK.WithData(gin.H{"token": token, "user": user, "claimable": amountString(claimable)}))
}

func (h *Handler) Eligible(c *gin.Context) {
	token, ok := addressParam(c, "token")
	if !ok {
		return
	}
	user, ok := addressParam(c, "user")
	if !ok {
		return
	}
	eligible, err := h.reader.IsEligible(c.Request.Context(), token, user)
	if err != nil {
		c.JSON(http.StatusBadGateway, resp.ErrChain.WithData(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp.OK.WithData(gin.H{"token": token, "user": user, "eligible": eligible}))
}

func (h *Handler) Operations(c *gin.Context) {
	c.JSON(http.StatusOK, resp.OK.WithData(h.operations.Snapshot()))
}

// Preflight runs a claim as a dry run: encode, attest, verify and simulate,
// without signing anything. Amounts are in base units.
func (h *Handler) Preflight(c *gin.Context) {
	var payload PreflightPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, resp.ErrParam)
		return
	}
	if !common.IsHexAddress(payload.User) || !common.IsHexAddress(payload.Token) {
		c.JSON(http.StatusBadRequest, resp.ErrAddress)
		return
	}
	amount, ok := new(big.Int).SetString(payload.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, resp.ErrAmount)
		return
	}

	outcome := h.runner.Run(c.Request.Context(), orchestrator.Request{
		Kind:   orchestrator.KindClaim,
		Wallet: types.ETHWallet{FromAddr: common.HexToAddress(payload.User)},
		Token:  common.HexToAddress(payload.Token),
		Amount: amount,
		DryRun: true,
	})
	event := iac.NewOutcomeEvent(outcome)
	switch {
	case outcome.Succeeded():
		c.JSON(http.StatusOK, resp.OK.WithData(event))
	case errors.Is(outcome.Err(), claimerr.ErrOperationInFlight):
		c.JSON(http.StatusConflict, resp.ErrInFlight.WithData(event))
	case claimerr.IsRetryable(outcome.Err()):
		c.JSON(http.StatusBadGateway, resp.ErrPreflightFailed.WithData(event))
	default:
		c.JSON(http.StatusUnprocessableEntity, resp.ErrPreflightFailed.WithData(event))
	}
}

func addressParam(c *gin.Context, name string) (common.Address, bool) {
	value := c.Param(name)
	if !common.IsHexAddress(value) {
		c.JSON(http.StatusBadRequest, resp.ErrAddress.WithData(name))
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
