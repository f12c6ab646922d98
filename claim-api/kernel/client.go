package kernel

import (
	"context"
	"errors"
	"net"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/logger"
	kernelcalls "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/kernel_calls"
)

const (
	executeMethod  = "krnl_executeKernels"
	DefaultTimeout = 30 * time.Second
)

type Options struct {
	Timeout   time.Duration
	RateLimit rate.Limit
}

// Client is a pure transport to the kernel oracle. It makes no trust
// decision about what comes back and never retries on its own.
type Client struct {
	rpc       *rpc.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    logger.Logger
	indicator kernelcalls.Indicators
}

func Dial(ctx context.Context, endpoint string, opts Options, logger logger.Logger, indicator kernelcalls.Indicators) (*Client, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrNetwork, "dial kernel endpoint: %v", err)
	}
	return NewClient(c, opts, logger, indicator), nil
}

func NewClient(c *rpc.Client, opts Options, logger logger.Logger, indicator kernelcalls.Indicators) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	return &Client{
		rpc:       c,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(opts.RateLimit, 1),
		logger:    logger,
		indicator: indicator,
	}
}

// Execute sends req to the oracle and returns the attestation bundle exactly
// as received.
func (c *Client) Execute(ctx context.Context, req Request) (*Bundle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kernelID := req.KernelID.String()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.classify(ctx, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := executeRequest{
		SenderAddress: req.Sender,
		KernelPayload: map[string]kernelCall{
			kernelID: {FunctionParams: req.KernelParams},
		},
	}

	start := time.Now()
	var resp executeResponse
	err := c.rpc.CallContext(callCtx, &resp, executeMethod, req.EntryID, req.AccessToken, payload, hexutil.Bytes(req.FunctionParams))
	c.indicator.ObserveKernelRequestDurationSeconds(time.Since(start).Seconds(), kernelID)
	if err != nil {
		err = c.classify(ctx, err)
		c.indicator.AddKernelRequestTotal(kernelID, outcome(err))
		c.logger.Warn("Kernel execution failed", logger.WithField("kernelId", kernelID), logger.WithError(err))
		return nil, err
	}
	c.indicator.AddKernelRequestTotal(kernelID, "success")
	c.logger.Debug("Kernel execution attested", logger.WithField("kernelId", kernelID), logger.WithField("sender", req.Sender.Hex()))

	return &Bundle{
		Auth:            resp.Auth,
		KernelParams:    resp.KernelParams,
		KernelResponses: resp.KernelResponses,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// classify maps transport errors onto the claim taxonomy. parent is the
// caller's context so a caller cancellation is not reported as a timeout.
func (c *Client) classify(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return errorsmod.Wrap(claimerr.ErrUserCancelled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errorsmod.Wrapf(claimerr.ErrTimeout, "kernel execution exceeded %s", c.timeout)
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return errorsmod.Wrapf(claimerr.ErrOracleRejected, "http %d: %s", httpErr.StatusCode, httpErr.Body)
		}
		return errorsmod.Wrapf(claimerr.ErrNetwork, "http %d", httpErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errorsmod.Wrap(claimerr.ErrTimeout, err.Error())
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return errorsmod.Wrapf(claimerr.ErrOracleRejected, "%s (code %d)", rpcErr.Error(), rpcErr.ErrorCode())
	}
	return errorsmod.Wrap(claimerr.ErrNetwork, err.Error())
}

func outcome(err error) string {
	switch {
	case errors.Is(err, claimerr.ErrOracleRejected):
		return "rejected"
	case errors.Is(err, claimerr.ErrTimeout):
		return "timeout"
	case errors.Is(err, claimerr.ErrUserCancelled):
		return "cancelled"
	default:
		return "network"
	}
}
