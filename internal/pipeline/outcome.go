package pipeline

import "fmt"

// OrderStatus is the terminal state of one order's processing. Exactly
// one of the three is reached per order.
type OrderStatus string

// Terminal order statuses
const (
	OrderSucceeded OrderStatus = "succeeded"
	OrderErrored   OrderStatus = "errored"
	OrderSkipped   OrderStatus = "skipped"
)

// Outcome accumulates the counters for one batch run. The engine is
// the only writer, and processed == succeeded + errored + skipped
// holds after every order.
type Outcome struct {
	Processed int
	Succeeded int
	Errored   int
	Skipped   int
}

// record counts one order's terminal status
func (o *Outcome) record(status OrderStatus) {
	o.Processed++
	switch status {
	case OrderSucceeded:
		o.Succeeded++
	case OrderErrored:
		o.Errored++
	case OrderSkipped:
		o.Skipped++
	}
}

// HasErrors reports whether any order ended in the errored state
func (o Outcome) HasErrors() bool {
	return o.Errored > 0
}

// Summary renders the human-readable run summary used in alerts
func (o Outcome) Summary() string {
	return fmt.Sprintf("Procesados: %d | Exitosos: %d | Errores: %d | Omitidos: %d",
		o.Processed, o.Succeeded, o.Errored, o.Skipped)
}

// OrderResult is the per-order record handed to the run recorder
type OrderResult struct {
	OrderID   string
	Reference string
	Status    OrderStatus
	Error     string
}
