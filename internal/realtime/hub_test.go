package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_AcceptsWellFormedEvents(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"table":"products","type":"INSERT","record":{"id":1,"name":"Aviator"}}`))
	require.NoError(t, err)
	assert.Equal(t, TableProducts, ev.Table)
	assert.Equal(t, EventInsert, ev.Type)
	assert.NotEmpty(t, ev.Record)

	ev, err = ParseEvent([]byte(`{"table":"orders","type":"DELETE","record_id":9}`))
	require.NoError(t, err)
	assert.Equal(t, EventDelete, ev.Type)
	assert.Equal(t, uint(9), ev.RecordID)
}

func TestParseEvent_RejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"table":`},
		{"unknown table", `{"table":"invoices","type":"INSERT","record":{"id":1}}`},
		{"unknown event type", `{"table":"products","type":"TRUNCATE","record":{"id":1}}`},
		{"insert without record", `{"table":"products","type":"INSERT"}`},
		{"update without record", `{"table":"customers","type":"UPDATE"}`},
		{"delete without record id", `{"table":"orders","type":"DELETE"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tc.payload))
			assert.Error(t, err)
		})
	}
}

func TestNewRecordEvent_RoundTripsThroughParse(t *testing.T) {
	type row struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	ev, err := NewRecordEvent(TableProducts, EventUpdate, row{ID: 5, Name: "Clubmaster"})
	require.NoError(t, err)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	parsed, err := ParseEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev, parsed)

	var got row
	require.NoError(t, json.Unmarshal(parsed.Record, &got))
	assert.Equal(t, uint(5), got.ID)
}

func TestNewDeleteEvent(t *testing.T) {
	ev := NewDeleteEvent(TableCustomers, 12)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	parsed, err := ParseEvent(data)
	require.NoError(t, err)
	assert.Equal(t, uint(12), parsed.RecordID)
	assert.Empty(t, parsed.Record)
}
