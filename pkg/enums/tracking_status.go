package enums

import "fmt"

// TrackingStatus is a production milestone recorded against an order.
// Labels are ordered from intake to delivery; Delivered is terminal and
// completes the order.
type TrackingStatus string

const (
	TrackingStatusOrderPlaced        TrackingStatus = "Order Placed"
	TrackingStatusCuttingStarted     TrackingStatus = "Cutting Started"
	TrackingStatusCuttingCompleted   TrackingStatus = "Cutting Completed"
	TrackingStatusSewingStarted      TrackingStatus = "Sewing Started"
	TrackingStatusSewingCompleted    TrackingStatus = "Sewing Completed"
	TrackingStatusFinishingStarted   TrackingStatus = "Finishing Started"
	TrackingStatusFinishingCompleted TrackingStatus = "Finishing Completed"
	TrackingStatusQCChecked          TrackingStatus = "QC Checked"
	TrackingStatusPacked             TrackingStatus = "Packed"
	TrackingStatusShipped            TrackingStatus = "Shipped"
	TrackingStatusOutForDelivery     TrackingStatus = "Out for Delivery"
	TrackingStatusDelivered          TrackingStatus = "Delivered"
)

var validTrackingStatuses = []TrackingStatus{
	TrackingStatusOrderPlaced,
	TrackingStatusCuttingStarted,
	TrackingStatusCuttingCompleted,
	TrackingStatusSewingStarted,
	TrackingStatusSewingCompleted,
	TrackingStatusFinishingStarted,
	TrackingStatusFinishingCompleted,
	TrackingStatusQCChecked,
	TrackingStatusPacked,
	TrackingStatusShipped,
	TrackingStatusOutForDelivery,
	TrackingStatusDelivered,
}

// String implements fmt.Stringer.
func (t TrackingStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TrackingStatus.
func (t TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
