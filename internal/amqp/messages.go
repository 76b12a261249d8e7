package amqp

import (
	"encoding/json"
	"time"
)

// ExportSyncMessage asks the worker to upload one archived export. It
// carries only the archive id; the worker fetches the record itself.
type ExportSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportSyncMessage(id int64) *ExportSyncMessage {
	return &ExportSyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *ExportSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportSyncMessageFromJSON(data []byte) (*ExportSyncMessage, error) {
	var msg ExportSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
