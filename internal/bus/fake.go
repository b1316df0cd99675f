package bus

import (
	"errors"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// FakeReader is a test double that returns scripted raw samples.
type FakeReader struct {
	// Samples contains the scripted samples to return.
	// Each call to ReadRawSample() consumes the next sample.
	Samples []logic.RawSample

	// FailAt injects an error on the given (zero-based) read.
	// A failed read still consumes its slot.
	FailAt map[int]error

	// ReadError, if set, is returned by every ReadRawSample().
	ReadError error

	// Reads counts calls to ReadRawSample.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...logic.RawSample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// ReadRawSample returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) ReadRawSample() (logic.RawSample, error) {
	n := f.Reads
	f.Reads++

	if f.ReadError != nil {
		return logic.RawSample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return logic.RawSample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	if err := f.FailAt[n]; err != nil {
		return logic.RawSample{}, err
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}
