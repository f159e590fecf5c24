package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldDebtID        = "debt_id"
	FieldAmount        = "amount"
	FieldDueDate       = "due_date"
	FieldDirection     = "direction"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAuth     = "auth"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCalendar = "calendar"
	ComponentCache    = "cache"
)
