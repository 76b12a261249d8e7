package log

// Field names shared across components.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCategory   = "category"
	FieldWorkCode   = "work_code"
	FieldCount      = "count"
	FieldSource     = "catalog_source"
	FieldExportID   = "export_id"
	FieldSheetsRef  = "sheets_ref"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentCatalog = "catalog"
	ComponentSession = "session"
	ComponentExport  = "export"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)

// Operation names.
const (
	OpLoad     = "load"
	OpReload   = "reload"
	OpGenerate = "generate"
	OpClear    = "clear"
	OpArchive  = "archive"
	OpSync     = "sync"
	OpAppend   = "append"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
