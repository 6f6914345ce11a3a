package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldTransaction = "transaction_id"
	FieldDescription = "description"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldType        = "transaction_type"
	FieldDate        = "date"
	FieldPeriod      = "period"
	FieldCurrency    = "currency"
	FieldVersion     = "version"
	FieldBatchSize   = "batch_size"
	FieldCount       = "count"
	FieldTool        = "tool"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAnalytics = "analytics"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRecurring = "recurring"
	ComponentSheets    = "sheets"
	ComponentCurrency  = "currency"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentMCP       = "mcp"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpImport     = "import"
	OpSummary    = "summary"
	OpComparison = "comparison"
	OpTrends     = "trends"
	OpHealth     = "health"
	OpConvert    = "convert"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpAppend     = "append"
	OpRemove     = "remove"
	OpSync       = "sync"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeNetwork    = "network_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeInternal   = "internal_error"
)
