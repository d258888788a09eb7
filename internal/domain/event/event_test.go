package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{name: "stage changed", eventType: TypeStageChanged, want: true},
		{name: "extraction completed", eventType: TypeExtractionCompleted, want: true},
		{name: "extraction failed", eventType: TypeExtractionFailed, want: true},
		{name: "liquidation finalized", eventType: TypeLiquidationFinalized, want: true},
		{name: "batch dispatched", eventType: TypeBatchDispatched, want: true},
		{name: "batch confirmed", eventType: TypeBatchConfirmed, want: true},
		{name: "unknown type", eventType: Type("unknown.type"), want: false},
		{name: "empty string", eventType: Type(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_String(t *testing.T) {
	if got := TypeLiquidationFinalized.String(); got != "liquidation.finalized" {
		t.Errorf("Type.String() = %v, want %v", got, "liquidation.finalized")
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeLiquidationFinalized, "2024NE000123", map[string]interface{}{
		KeyValorNota: "1.234,56",
		KeySequence:  1,
	})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Type != TypeLiquidationFinalized {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeLiquidationFinalized)
	}
	if event.Subject != "2024NE000123" {
		t.Errorf("Event Subject = %v, want %v", event.Subject, "2024NE000123")
	}
	if event.GetPayloadString(KeyValorNota) != "1.234,56" {
		t.Errorf("Event Payload[%s] = %v", KeyValorNota, event.Payload[KeyValorNota])
	}
	if event.CorrelationID == "" {
		t.Error("Event CorrelationID should not be empty")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEvent_NilPayload(t *testing.T) {
	event := NewEvent(TypeStageChanged, "", nil)

	if event.Payload == nil {
		t.Fatal("Event Payload should default to an empty map")
	}
	if got := event.GetPayloadString(KeyFrom); got != "" {
		t.Errorf("GetPayloadString() = %v, want empty", got)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeBatchDispatched, "15/10/2026", map[string]interface{}{
		KeyChannel: "mailto",
	})

	modified := original.WithPayload(KeyReceipt, "mailto:ops@example.gov.br")

	if _, exists := original.Payload[KeyReceipt]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.GetPayloadString(KeyChannel) != "mailto" {
		t.Error("Modified event should retain original payload")
	}
	if modified.GetPayloadString(KeyReceipt) != "mailto:ops@example.gov.br" {
		t.Error("Modified event should have new payload")
	}
	if modified.ID != original.ID || modified.Subject != original.Subject || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep identity fields")
	}
}

func TestEvent_PayloadAccessors(t *testing.T) {
	event := NewEvent(TypeExtractionCompleted, "", map[string]interface{}{
		"int64":      int64(100),
		"int":        50,
		"float64":    75.5,
		"string":     "text",
		"bool":       true,
		"strings":    []string{"pregao", "valorNota"},
		"interfaces": []interface{}{"a", 1, "b"},
	})

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"int from int64", event.GetPayloadInt("int64"), int64(100)},
		{"int from int", event.GetPayloadInt("int"), int64(50)},
		{"int from float", event.GetPayloadInt("float64"), int64(75)},
		{"int from string", event.GetPayloadInt("string"), int64(0)},
		{"float from int", event.GetPayloadFloat("int"), 50.0},
		{"float missing", event.GetPayloadFloat("missing"), 0.0},
		{"string", event.GetPayloadString("string"), "text"},
		{"string from int", event.GetPayloadString("int"), ""},
		{"bool", event.GetPayloadBool("bool"), true},
		{"bool from string", event.GetPayloadBool("string"), false},
		{"strings count", len(event.GetPayloadStrings("strings")), 2},
		{"strings from interfaces", len(event.GetPayloadStrings("interfaces")), 2},
		{"strings missing", len(event.GetPayloadStrings("missing")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestEvent_CorrelationChain(t *testing.T) {
	dispatched := NewEvent(TypeBatchDispatched, "15/10/2026", nil)
	confirmed := NewEventWithCorrelation(TypeBatchConfirmed, "15/10/2026", nil, dispatched.CorrelationID)

	if confirmed.CorrelationID != dispatched.CorrelationID {
		t.Error("confirmed event should share the dispatch correlation ID")
	}
	if confirmed.ID == dispatched.ID {
		t.Error("Events should have unique IDs even with same correlation ID")
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		event := NewEvent(TypeStageChanged, "", nil)
		if ids[event.ID] {
			t.Errorf("Duplicate event ID found: %s", event.ID)
		}
		ids[event.ID] = true
	}
}
