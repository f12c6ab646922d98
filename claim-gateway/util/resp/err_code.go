package resp

var (
	// OK result
	OK = NewError(0, "success")

	// ErrParam param errors
	ErrParam   = NewError(10001, "Param parse failed")
	ErrAddress = NewError(10002, "Invalid address")
	ErrAmount  = NewError(10003, "Invalid amount")

	// ErrNoSchedule check logic errors
	ErrNoSchedule      = NewError(20001, "No vesting schedule for token")
	ErrPreflightFailed = NewError(20002, "Claim would fail")
	ErrInFlight        = NewError(20003, "Operation already in flight")

	// ErrChain internal errors
	ErrChain = NewError(50001, "Chain read failed")
)
