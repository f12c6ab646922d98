package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

var (
	token = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	alice = common.HexToAddress("0xaA0851f2939EF2D8B51971B510383Fcb5c246a17")
)

type fakeReader struct {
	schedules map[common.Address]vesting.Schedule
	err       error
}

func (f *fakeReader) Schedule(_ context.Context, token common.Address) (vesting.Schedule, error) {
	return f.schedules[token], f.err
}

func (f *fakeReader) Vested(_ context.Context, token common.Address) (*big.Int, uint64, error) {
	s := f.schedules[token]
	now := s.StartTime + s.CliffDuration + s.VestingDuration/2
	return vesting.VestedAmount(s, now), now, f.err
}

func (f *fakeReader) Claimable(_ context.Context, _, token common.Address) (*big.Int, error) {
	v, _, err := f.Vested(context.Background(), token)
	return v, err
}

func (f *fakeReader) IsEligible(_ context.Context, token, user common.Address) (bool, error) {
	return f.schedules[token].IsEligible(user), f.err
}

type fakeRunner struct {
	last  orchestrator.Request
	state orchestrator.State
}

func (f *fakeRunner) Run(_ context.Context, req orchestrator.Request) *orchestrator.Outcome {
	f.last = req
	return &orchestrator.Outcome{ID: "op-1", Kind: req.Kind, User: req.User(), Token: req.Token, Amount: req.Amount, State: f.state}
}

type fakeOperations []orchestrator.Operation

func (f fakeOperations) Snapshot() []orchestrator.Operation {
	return f
}

type body struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type apiTestSuite struct {
	suite.Suite
	reader *fakeReader
	runner *fakeRunner
	health error
	router *gin.Engine
}

func (s *apiTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.reader = &fakeReader{schedules: map[common.Address]vesting.Schedule{
		token: {
			Token:             token,
			TotalAmount:       big.NewInt(1000),
			StartTime:         1_700_000_000,
			CliffDuration:     100,
			VestingDuration:   1000,
			EligibleAddresses: []common.Address{alice},
			Active:            true,
		},
	}}
	s.runner = &fakeRunner{state: orchestrator.State{Stage: orchestrator.StageReady}}
	s.health = nil
	s.router = gin.New()
	SetupRoutes(s.router, NewHandler(s.reader, s.runner, fakeOperations{}, func(context.Context) error { return s.health }))
}

func (s *apiTestSuite) do(method, path string, payload interface{}) (int, body) {
	var reqBody bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&reqBody).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var b body
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	return w.Code, b
}

func (s *apiTestSuite) TestSchedule() {
	code, b := s.do(http.MethodGet, "/v1/schedules/"+token.Hex(), nil)
	s.Equal(http.StatusOK, code)
	var view ScheduleView
	s.Require().NoError(json.Unmarshal(b.Data, &view))
	s.Equal("1000", view.TotalAmount)
	s.Equal(uint64(1_700_000_100), view.CliffEnd)
	s.Equal(uint64(1_700_001_100), view.UnlockTime)
}

func (s *apiTestSuite) TestScheduleNotFound() {
	code, b := s.do(http.MethodGet, "/v1/schedules/"+alice.Hex(), nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal(20001, b.Code)
}

func (s *apiTestSuite) TestBadAddress() {
	code, b := s.do(http.MethodGet, "/v1/claimable/"+token.Hex()+"/0x123", nil)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(10002, b.Code)
	s.JSONEq(`"user"`, string(b.Data))
}

func (s *apiTestSuite) TestChainFailure() {
	s.reader.err = errors.New("connection refused")
	code, b := s.do(http.MethodGet, "/v1/vested/"+token.Hex(), nil)
	s.Equal(http.StatusBadGateway, code)
	s.Equal(50001, b.Code)
}

func (s *apiTestSuite) TestReads() {
	code, b := s.do(http.MethodGet, "/v1/vested/"+token.Hex(), nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(b.Data), `"vested":"500"`)

	code, b = s.do(http.MethodGet, "/v1/claimable/"+token.Hex()+"/"+alice.Hex(), nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(b.Data), `"claimable":"500"`)

	code, b = s.do(http.MethodGet, "/v1/eligible/"+token.Hex()+"/"+alice.Hex(), nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(b.Data), `"eligible":true`)

	code, b = s.do(http.MethodGet, "/v1/operations", nil)
	s.Equal(http.StatusOK, code)
	s.JSONEq(`[]`, string(b.Data))
}

func (s *apiTestSuite) TestPreflightReady() {
	code, b := s.do(http.MethodPost, "/v1/claims/preflight", PreflightPayload{User: alice.Hex(), Token: token.Hex(), Amount: "500"})
	s.Equal(http.StatusOK, code)
	s.Equal(0, b.Code)
	s.True(s.runner.last.DryRun)
	s.Equal(orchestrator.KindClaim, s.runner.last.Kind)
	s.Equal(alice, s.runner.last.User())
	s.Equal("500", s.runner.last.Amount.String())
	s.Contains(string(b.Data), `"stage":"ready"`)
}

func (s *apiTestSuite) TestPreflightFailures() {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"ineligible", errorsmod.Wrap(claimerr.ErrIneligible, "not on list"), http.StatusUnprocessableEntity},
		{"simulation reverted", claimerr.ErrSimulationReverted, http.StatusUnprocessableEntity},
		{"oracle unreachable", claimerr.ErrNetwork, http.StatusBadGateway},
		{"in flight", claimerr.ErrOperationInFlight, http.StatusConflict},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.runner.state = orchestrator.State{Stage: orchestrator.StageFailed, Err: tc.err}
			code, b := s.do(http.MethodPost, "/v1/claims/preflight", PreflightPayload{User: alice.Hex(), Token: token.Hex(), Amount: "500"})
			s.Equal(tc.code, code)
			s.NotEqual(0, b.Code)
			s.Contains(string(b.Data), `"stage":"failed"`)
		})
	}
}

func (s *apiTestSuite) TestPreflightBadPayload() {
	testCases := []struct {
		name    string
		payload interface{}
		code    int
	}{
		{"missing fields", map[string]string{"user": alice.Hex()}, 10001},
		{"bad address", PreflightPayload{User: "alice", Token: token.Hex(), Amount: "1"}, 10002},
		{"zero amount", PreflightPayload{User: alice.Hex(), Token: token.Hex(), Amount: "0"}, 10003},
		{"fractional amount", PreflightPayload{User: alice.Hex(), Token: token.Hex(), Amount: "1.5"}, 10003},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			code, b := s.do(http.MethodPost, "/v1/claims/preflight", tc.payload)
			s.Equal(http.StatusBadRequest, code)
			s.Equal(tc.code, b.Code)
		})
	}
}

func (s *apiTestSuite) TestHealth() {
	code, _ := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, code)

	s.health = errors.New("node down")
	code, b := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal(50001, b.Code)
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(apiTestSuite))
}
