package consts

const (
	VestClaimPromNamespace = "vestclaim"
	TransactionProcess     = "transaction_process"
	KernelCalls            = "kernel_calls"
	ClaimPipeline          = "claim_pipeline"
)
