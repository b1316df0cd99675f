package mqtt

import (
	"sync"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Outputs contains all channel values that were published.
	Outputs []logic.Output

	// Alerts contains all alert transitions that were published.
	Alerts []logic.AlertEvent

	// AlertPayloads contains the JSON payloads for alert events.
	AlertPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishOutput and PublishAlert.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishOutput records the channel value.
func (f *FakePublisher) PublishOutput(out logic.Output) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Outputs = append(f.Outputs, out)
	return nil
}

// PublishAlert records the alert event.
func (f *FakePublisher) PublishAlert(event logic.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatAlertPayload(event)
	if err != nil {
		return err
	}
	f.Alerts = append(f.Alerts, event)
	f.AlertPayloads = append(f.AlertPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// OutputsFor returns the recorded values of one channel in publish order.
func (f *FakePublisher) OutputsFor(c logic.Channel) []logic.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []logic.Output
	for _, o := range f.Outputs {
		if o.Channel == c {
			out = append(out, o)
		}
	}
	return out
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Outputs = nil
	f.Alerts = nil
	f.AlertPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
