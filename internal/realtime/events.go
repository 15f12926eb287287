package realtime

// EventType is the closed set of events carried over the websocket channels.
// Payloads are always the JSON form of the entity the event is about; clients
// never see free-form event names.
type EventType string

const (
	EventBudgetReceived    EventType = "budget_received"
	EventBudgetCountered   EventType = "budget_countered"
	EventBudgetAccepted    EventType = "budget_accepted"
	EventBudgetRejected    EventType = "budget_rejected"
	EventBudgetCancelled   EventType = "budget_cancelled"
	EventContractCreated   EventType = "contract_created"
	EventContractFinalized EventType = "contract_finalized"
	EventContractCancelled EventType = "contract_cancelled"
	EventDisputeOpened     EventType = "dispute_opened"
	EventDisputeResolved   EventType = "dispute_resolved"
	EventPaymentPaid       EventType = "payment_paid"
	EventNewMessage        EventType = "new_message"
	EventNotification      EventType = "notification"
	EventAdminNotification EventType = "admin_notification"
	EventPresenceJoin      EventType = "presence_join"
	EventPresenceLeave     EventType = "presence_leave"
)

// Event is the wire envelope for every push
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}
