package amqp

import (
	"encoding/json"
	"time"

	"velvet/internal/core"
)

// MonthSnapshot carries the full state of one calendar month. Consumers
// replace their copy of the month wholesale, there is no delta format.
type MonthSnapshot struct {
	Year         int                `json:"year"`
	Month        time.Month         `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
	Plans        []core.Plan        `json:"plans"`
	Timestamp    time.Time          `json:"timestamp"`
}

func NewMonthSnapshot(year int, month time.Month, txs []core.Transaction, plans []core.Plan) *MonthSnapshot {
	if txs == nil {
		txs = []core.Transaction{}
	}
	if plans == nil {
		plans = []core.Plan{}
	}
	return &MonthSnapshot{
		Year:         year,
		Month:        month,
		Transactions: txs,
		Plans:        plans,
		Timestamp:    time.Now(),
	}
}

func (m *MonthSnapshot) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthSnapshotFromJSON(data []byte) (*MonthSnapshot, error) {
	var msg MonthSnapshot
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
