package observability

// Span and attribute names follow the OpenTelemetry semantic
// conventions for generative-AI systems (the "gen_ai.*" namespace)
// where one applies, falling back to this service's own names for
// everything else (spec §6's tracing surface).
const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"

	AttrAgentName    = "agent.name"
	AttrSessionID    = "session.id"
	AttrUserID       = "user.id"
	AttrInvocationID = "invocation.id"

	AttrGenAISystem               = "gen_ai.system"
	AttrGenAIOperationName        = "gen_ai.operation.name"
	AttrGenAIRequestModel         = "gen_ai.request.model"
	AttrGenAIRequestMaxTokens     = "gen_ai.request.max_tokens"
	AttrGenAIRequestTemperature   = "gen_ai.request.temperature"
	AttrGenAIRequestTopP          = "gen_ai.request.top_p"
	AttrGenAIUsageInputTokens     = "gen_ai.usage.input_tokens"
	AttrGenAIUsageOutputTokens    = "gen_ai.usage.output_tokens"
	AttrGenAIResponseFinishReason = "gen_ai.response.finish_reason"
	AttrGenAIToolName             = "gen_ai.tool.name"
	AttrGenAIToolDescription      = "gen_ai.tool.description"
	AttrGenAIToolCallID           = "gen_ai.tool.call.id"

	AttrLLMRequest   = "llm.request.body"
	AttrLLMResponse  = "llm.response.body"
	AttrToolArgs     = "tool.args"
	AttrToolResponse = "tool.response"

	AttrHTTPMethod       = "http.method"
	AttrHTTPPath         = "http.path"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPResponseSize = "http.response_size"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
	AttrStatusCode   = "http.status_code"

	SpanAgentRun      = "agent.run"
	SpanAgentCall     = "agent.call"
	SpanLLMCall       = "llm.call"
	SpanLLMRequest    = "agent.llm_request"
	SpanToolExecution = "agent.tool_execution"
	SpanMemoryLookup  = "agent.memory_lookup"
	SpanMemorySearch  = "memory.search"
	SpanHTTPRequest   = "http.request"

	OpChat       = "chat"
	OpToolCall   = "execute_tool"
	OpEmbeddings = "embeddings"

	DefaultServiceName  = "agentforge"
	DefaultSamplingRate = 1.0
	DefaultMetricsPath  = "/metrics"
	DefaultOTLPEndpoint = "localhost:4318"
)
