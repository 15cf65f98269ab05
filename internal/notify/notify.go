// Package notify delivers best-effort notifications about count mismatches.
//
// Delivery never reports back to the caller: a Notifier has no error return,
// and failures are logged and dropped.
package notify

// Mismatch is the payload sent when a counted quantity differs from the
// manifest.
type Mismatch struct {
	Status           string `json:"status"`
	ProductName      string `json:"product_name"`
	Barcode          string `json:"barcode"`
	ExpectedQuantity int    `json:"expected_quantity"`
	ActualQuantity   int    `json:"actual_quantity"`
	SessionName      string `json:"session_name"`
}

// Notifier dispatches mismatch notifications. Implementations must not block
// the caller on delivery.
type Notifier interface {
	NotifyMismatch(m Mismatch)
}

// Nop discards every notification.
type Nop struct{}

// NotifyMismatch implements Notifier.
func (Nop) NotifyMismatch(Mismatch) {}
