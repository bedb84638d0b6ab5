package amqp

import (
	"encoding/json"
	"time"
)

// DatasetUpdatedType is the AMQP message type of DatasetUpdatedMessage.
const DatasetUpdatedType = "dataset.updated"

// DatasetUpdatedMessage announces that a new budget snapshot was imported.
// Receivers reload from their own store; the table itself is not carried.
type DatasetUpdatedMessage struct {
	Version   int64     `json:"version"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetUpdatedMessage(version int64, source string) *DatasetUpdatedMessage {
	return &DatasetUpdatedMessage{
		Version:   version,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *DatasetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetUpdatedMessageFromJSON(data []byte) (*DatasetUpdatedMessage, error) {
	var msg DatasetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
