package wyoming

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Event is a single Wyoming protocol message: a type tag, an optional JSON
// data object, and an optional raw binary payload. The framing delivers all
// three atomically — see ReadEvent/WriteEvent.
type Event struct {
	Type    string
	Data    json.RawMessage
	Payload []byte
}

// header is the wire shape of the first line of a frame.
type header struct {
	Type          string `json:"type"`
	DataLength    *int   `json:"data_length,omitempty"`
	PayloadLength *int   `json:"payload_length,omitempty"`
}

// New creates an Event with the given type and a JSON-encoded data object.
// Pass nil for v to emit an event with no data section.
func New(typ string, v any) (*Event, error) {
	ev := &Event{Type: typ}
	if v == nil {
		return ev, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wyoming: encode %s data: %w", typ, err)
	}
	ev.Data = b
	return ev, nil
}

// WithPayload attaches a raw binary payload to the event and returns it.
func (e *Event) WithPayload(payload []byte) *Event {
	e.Payload = payload
	return e
}

// DecodeData unmarshals the event's data section into v. It is an error to
// call this on an event with no data section.
func (e *Event) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("wyoming: %s: no data section", e.Type)
	}
	return json.Unmarshal(e.Data, v)
}

// ReadEvent reads one frame from r: the header line, then exactly
// data_length bytes of JSON (if present), then exactly payload_length
// bytes of raw payload (if present). Any truncation or malformed JSON
// returns an error wrapping ErrFraming.
func ReadEvent(r *bufio.Reader) (*Event, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, err
		}
		return nil, fmt.Errorf("wyoming: read header: %w: %v", ErrFraming, err)
	}

	var h header
	if err := json.Unmarshal([]byte(line), &h); err != nil {
		return nil, fmt.Errorf("wyoming: parse header: %w: %v", ErrFraming, err)
	}
	if h.Type == "" {
		return nil, fmt.Errorf("wyoming: header missing type: %w", ErrFraming)
	}

	ev := &Event{Type: h.Type}

	if h.DataLength != nil && *h.DataLength > 0 {
		buf := make([]byte, *h.DataLength)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("wyoming: read data section: %w: %v", ErrFraming, err)
		}
		if !json.Valid(buf) {
			return nil, fmt.Errorf("wyoming: invalid data section json: %w", ErrFraming)
		}
		ev.Data = json.RawMessage(buf)
	}

	if h.PayloadLength != nil && *h.PayloadLength > 0 {
		buf := make([]byte, *h.PayloadLength)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("wyoming: read payload: %w: %v", ErrFraming, err)
		}
		ev.Payload = buf
	}

	return ev, nil
}

// WriteEvent writes ev to w in the canonical header/data/payload order,
// setting data_length and payload_length to the actual section sizes.
func WriteEvent(w io.Writer, ev *Event) error {
	h := header{Type: ev.Type}
	if len(ev.Data) > 0 {
		n := len(ev.Data)
		h.DataLength = &n
	}
	if len(ev.Payload) > 0 {
		n := len(ev.Payload)
		h.PayloadLength = &n
	}

	headerLine, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("wyoming: encode header: %w", err)
	}

	buf := make([]byte, 0, len(headerLine)+1+len(ev.Data)+len(ev.Payload))
	buf = append(buf, headerLine...)
	buf = append(buf, '\n')
	buf = append(buf, ev.Data...)
	buf = append(buf, ev.Payload...)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wyoming: write frame: %w", err)
	}
	return nil
}
