// Package lookup is the CEP finder's interaction core: the state a user sees,
// the events that change it, and the coordinator that runs the search and sync
// workflows against the address backend.
package lookup

import (
	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/cep"
)

// Kind names a lookup workflow.
type Kind string

const (
	// KindSearch looks the CEP up in the local data source.
	KindSearch Kind = "search"
	// KindSync forces a lookup against the external API.
	KindSync Kind = "sync"
)

// State is what the host renders. ShowResult implies Address != nil.
type State struct {
	PostalCode         string           `json:"postal_code"`
	Display            string           `json:"display"`
	Address            *address.Address `json:"address"`
	IsLoading          bool             `json:"is_loading"`
	IsServiceAvailable bool             `json:"is_service_available"`
	ShowResult         bool             `json:"show_result"`
}

// InitialState is idle with no result; the service counts as available
// until the status probe says otherwise.
func InitialState() State {
	return State{IsServiceAvailable: true}
}

// ServiceStatusText is the label shown next to the status indicator.
func (s State) ServiceStatusText() string {
	if s.IsServiceAvailable {
		return "Serviço Online"
	}
	return "Serviço Offline"
}

// ServiceStatusClass is the CSS class of the status indicator.
func (s State) ServiceStatusClass() string {
	if s.IsServiceAvailable {
		return "service-status online"
	}
	return "service-status offline"
}

// ResultCardClass is the CSS class of the result card.
func (s State) ResultCardClass() string {
	if s.Address != nil {
		return "result-card success"
	}
	return "result-card"
}

// Event is a state transition input. The set is closed.
type Event interface {
	event()
}

// InputChanged carries a raw keystroke value from the postal code field.
type InputChanged struct{ Raw string }

// LookupStarted enters Loading and hides the previous result.
type LookupStarted struct{ Kind Kind }

// LookupFound records a non-empty backend result.
type LookupFound struct {
	Kind    Kind
	Address *address.Address
}

// LookupEmpty records that the backend found nothing.
type LookupEmpty struct{ Kind Kind }

// LookupFailed records a backend failure.
type LookupFailed struct {
	Kind Kind
	Err  error
}

// LookupFinished leaves Loading. It follows every LookupStarted.
type LookupFinished struct{ Kind Kind }

// Cleared resets the input and the result.
type Cleared struct{}

// StatusChecked records the outcome of the service status probe.
type StatusChecked struct{ Available bool }

func (InputChanged) event()   {}
func (LookupStarted) event()  {}
func (LookupFound) event()    {}
func (LookupEmpty) event()    {}
func (LookupFailed) event()   {}
func (LookupFinished) event() {}
func (Cleared) event()        {}
func (StatusChecked) event()  {}

// Reduce returns the state that follows s after ev. It has no side effects.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case InputChanged:
		code := cep.Normalize(e.Raw)
		s.PostalCode = code.Digits
		s.Display = code.Display

	case LookupStarted:
		s.IsLoading = true
		s.ShowResult = false

	case LookupFound:
		if e.Address != nil {
			s.Address = e.Address
			s.ShowResult = true
		}

	case LookupEmpty, LookupFailed:
		// The previous result stays hidden but is kept.

	case LookupFinished:
		s.IsLoading = false

	case Cleared:
		s.PostalCode = ""
		s.Display = ""
		s.Address = nil
		s.ShowResult = false

	case StatusChecked:
		s.IsServiceAvailable = e.Available
	}

	return s
}
