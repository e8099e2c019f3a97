package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Event records on disk are canonical CBOR maps keyed by small integers.
// ofs-log reads them back, possibly from files produced by older builds,
// so decoding accepts indefinite-length items and repeated keys.
var (
	eventEncMode = mustEventEncMode()
	eventDecMode = mustEventDecMode()
)

func mustEventEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("event log: encoder mode: %v", err))
	}
	return em
}

func mustEventDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("event log: decoder mode: %v", err))
	}
	return dm
}

// EncodeEvent encodes one event record. An event without a timestamp is
// stamped with the current time.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEncMode.Marshal(stamped(event))
}

// DecodeEvent decodes a single event record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

func stamped(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	return event
}

func newEventDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}
