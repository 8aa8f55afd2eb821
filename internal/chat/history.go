package chat

import (
	"bytes"
	"encoding/json"
	"time"
)

type HistoryEntry struct {
	SessionID string
	Title     string
	Timestamp time.Time
}

// History is a list of sessions, most recently updated first. It encodes as
// a JSON object keyed by session id, keeping that order.
type History []HistoryEntry

type historyValue struct {
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

func (h History) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.SessionID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(historyValue{Title: e.Title, Timestamp: e.Timestamp})
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
