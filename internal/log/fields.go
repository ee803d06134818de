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
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldCategoryName  = "category_name"
	FieldConfidence    = "confidence"
	FieldMerchant      = "merchant"
	FieldAmount        = "amount"
	FieldImagePath     = "image_path"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCategorizer = "categorizer"
	ComponentReceipt     = "receipt"
	ComponentCache       = "cache"
	ComponentSecurity    = "security"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id int64, merchant, amount string) LogFields {
	f[FieldTransactionID] = id
	f[FieldMerchant] = merchant
	f[FieldAmount] = amount
	return f
}

// WithCategorization adds categorization result fields
func (f LogFields) WithCategorization(categoryID int64, name string, confidence float64) LogFields {
	f[FieldCategoryID] = categoryID
	f[FieldCategoryName] = name
	f[FieldConfidence] = confidence
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
