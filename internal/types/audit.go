package types

// AuditAction is what happened to the audited object
type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionStatusChange AuditAction = "status_change"
)

const (
	AuditObjectInvoice      = "invoice"
	AuditObjectPayment      = "payment"
	AuditObjectMeterReading = "meter_reading"
)

// AuditLogFilter selects the trail of a set of objects, oldest first
type AuditLogFilter struct {
	ObjectIDs []string `json:"object_ids"`
}
