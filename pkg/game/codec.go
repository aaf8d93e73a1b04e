package game

import (
	"encoding/json"
	"fmt"
)

// envelope is the self-describing wire form of a [Record]. The type tag and
// the duplicated id/name let a reload route and identify a mirrored record
// without decoding the full payload first.
type envelope struct {
	Type Kind            `json:"type"`
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes rec into its JSON envelope. Collection fields are
// normalized first so that empty lists are encoded as [] rather than null.
func Encode(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("game: encode nil record")
	}
	NormalizeRecord(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("game: marshal %s record: %w", rec.RecordKind(), err)
	}
	env := envelope{
		Type: rec.RecordKind(),
		ID:   rec.RecordID(),
		Name: rec.DisplayName(),
		Data: data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("game: marshal envelope: %w", err)
	}
	return payload, nil
}

// Decode reconstructs a strongly typed [Record] from an [Encode] payload.
// Unknown type tags and malformed payloads are errors; callers doing bulk
// reloads should skip the failing record and continue.
func Decode(payload []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("game: unmarshal envelope: %w", err)
	}

	var rec Record
	switch env.Type {
	case KindNPC:
		rec = &NPC{}
	case KindQuest:
		rec = &Quest{}
	case KindLocation:
		rec = &Location{}
	default:
		return nil, fmt.Errorf("game: unknown record type %q", env.Type)
	}

	if err := json.Unmarshal(env.Data, rec); err != nil {
		return nil, fmt.Errorf("game: unmarshal %s record %q: %w", env.Type, env.ID, err)
	}
	NormalizeRecord(rec)
	return rec, nil
}
