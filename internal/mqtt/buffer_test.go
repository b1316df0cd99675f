package mqtt

import (
	"testing"
)

const testEvents = "bmi160/test/events"

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: testEvents, payload: []byte{byte(i)}, qos: 1})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}
	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	size := 5
	rb := newRingBuffer(size)

	for i := 0; i < size+3; i++ {
		rb.push(bufferedMsg{topic: testEvents, payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferCoalescesRetainedPerTopic(t *testing.T) {
	rb := newRingBuffer(10)
	pitch := "bmi160/test/pitch"
	roll := "bmi160/test/roll"

	rb.push(bufferedMsg{topic: pitch, payload: []byte("1.0"), retained: true})
	rb.push(bufferedMsg{topic: testEvents, payload: []byte("e1"), qos: 1})
	rb.push(bufferedMsg{topic: roll, payload: []byte("2.0"), retained: true})
	rb.push(bufferedMsg{topic: pitch, payload: []byte("3.0"), retained: true})

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	// The latest pitch value takes the slot of the first one.
	want := []string{"3.0", "e1", "2.0"}
	for i, w := range want {
		if string(got[i].payload) != w {
			t.Errorf("item %d: got %s, want %s", i, got[i].payload, w)
		}
	}
}

func TestRingBufferDoesNotCoalesceEvents(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{topic: testEvents, payload: []byte("a")})
	rb.push(bufferedMsg{topic: testEvents, payload: []byte("b")})
	if rb.len() != 2 {
		t.Errorf("expected 2 events buffered, got %d", rb.len())
	}
}

func TestRingBufferCoalesceAfterWrap(t *testing.T) {
	rb := newRingBuffer(3)
	for i := 0; i < 4; i++ {
		rb.push(bufferedMsg{topic: testEvents, payload: []byte{byte(i)}})
	}
	rb.push(bufferedMsg{topic: "bmi160/test/roll", payload: []byte("r1"), retained: true})
	rb.push(bufferedMsg{topic: "bmi160/test/roll", payload: []byte("r2"), retained: true})

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].payload[0] != 2 || got[1].payload[0] != 3 || string(got[2].payload) != "r2" {
		t.Errorf("unexpected contents: %v", got)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)
	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: testEvents, payload: []byte{byte(i)}})
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: testEvents, payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(10 + i); msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	rb.push(bufferedMsg{topic: testEvents, payload: []byte("a")})
	rb.push(bufferedMsg{topic: testEvents, payload: []byte("b")})
	got := rb.drainAll()
	if len(got) != 1 || string(got[0].payload) != "b" {
		t.Errorf("got %v, want only the newest message", got)
	}
}
