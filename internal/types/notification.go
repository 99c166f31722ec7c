package types

// NotificationChannel is the delivery channel of a notification
type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "inapp"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// NotificationTemplate names the message rendered to the user. Domain events
// share the same names.
type NotificationTemplate string

const (
	TemplateInvoiceCreated  NotificationTemplate = "invoice.created"
	TemplateInvoiceIssued   NotificationTemplate = "invoice.issued"
	TemplateInvoiceUpdated  NotificationTemplate = "invoice.updated"
	TemplateInvoiceOverdue  NotificationTemplate = "invoice.overdue"
	TemplateInvoiceVoided   NotificationTemplate = "invoice.voided"
	TemplatePaymentCreated  NotificationTemplate = "payment.created"
	TemplatePaymentReceived NotificationTemplate = "payment.received"
	TemplatePaymentFailed   NotificationTemplate = "payment.failed"
	TemplateInviteSent      NotificationTemplate = "invite.sent"
	TemplateInviteAccepted  NotificationTemplate = "invite.accepted"
	TemplateInviteRejected  NotificationTemplate = "invite.rejected"
	TemplateTenancyCreated  NotificationTemplate = "tenancy.created"
	TemplateMeterSubmitted  NotificationTemplate = "meter_reading.submitted"
)

var templatePriority = map[NotificationTemplate]NotificationPriority{
	TemplateInvoiceOverdue: NotificationPriorityUrgent,
	TemplatePaymentFailed:  NotificationPriorityHigh,
	TemplateInviteSent:     NotificationPriorityLow,
	TemplateMeterSubmitted: NotificationPriorityLow,
}

// Priority returns the delivery priority for the template, normal unless listed
func (t NotificationTemplate) Priority() NotificationPriority {
	if p, ok := templatePriority[t]; ok {
		return p
	}
	return NotificationPriorityNormal
}

func (t NotificationTemplate) String() string {
	return string(t)
}

// NotificationFilter represents filters for listing a user's notifications
type NotificationFilter struct {
	*QueryFilter
	UnreadOnly bool `json:"unread_only,omitempty" form:"unread_only"`

	UserID string `json:"-" form:"-"`
}

func NewNotificationFilter() *NotificationFilter {
	return &NotificationFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *NotificationFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	return f.QueryFilter.Validate()
}
