package models

type BrandStatus string

const (
	StatusPending    BrandStatus = "PENDING"
	StatusRegistered BrandStatus = "REGISTERED"
	StatusRejected   BrandStatus = "REJECTED"
	StatusExpired    BrandStatus = "EXPIRED"
	StatusCancelled  BrandStatus = "CANCELLED"
)

var statusLabels = map[BrandStatus]string{
	StatusPending:    "Pending",
	StatusRegistered: "Registered",
	StatusRejected:   "Rejected",
	StatusExpired:    "Expired",
	StatusCancelled:  "Cancelled",
}

// Statuses lists every status in display order.
func Statuses() []BrandStatus {
	return []BrandStatus{StatusPending, StatusRegistered, StatusRejected, StatusExpired, StatusCancelled}
}

func (s BrandStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display text; unknown values come back verbatim.
func (s BrandStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionStatusChange = "STATUS_CHANGE"
)

var actionLabels = map[string]string{
	ActionCreate:       "Record created",
	ActionUpdate:       "Brand edited",
	ActionDelete:       "Brand deleted",
	ActionStatusChange: "Status changed",
}

func ActionLabel(action string) string {
	if l, ok := actionLabels[action]; ok {
		return l
	}
	return action
}
