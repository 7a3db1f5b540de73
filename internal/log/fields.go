package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldPlanID        = "plan_id"
	FieldItemID        = "item_id"
	FieldCategory      = "category"
	FieldUser          = "user"
	FieldAmountCents   = "amount_cents"
	FieldSyncKey       = "sync_key"
	FieldBackend       = "backend"
	FieldCount         = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentGoals   = "goals"
	ComponentPersist = "persist"
	ComponentSync    = "sync"
	ComponentAMQP    = "amqp"
	ComponentAdvisor = "advisor"
	ComponentWorker  = "worker"
	ComponentMirror  = "mirror"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpRemove   = "remove"
	OpLoad     = "load"
	OpSave     = "save"
	OpPull     = "pull"
	OpPush     = "push"
	OpAdvise   = "advise"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
