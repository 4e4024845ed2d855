package cafe

import (
	"encoding/json"
	"testing"
)

func TestFlexID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want FlexID
	}{
		{"number", `7`, "7"},
		{"string", `"dv"`, "dv"},
		{"large number stays exact", `9007199254740993`, "9007199254740993"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id FlexID
			if err := json.Unmarshal([]byte(tt.data), &id); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.data, err)
			}
			if id != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.data, id, tt.want)
			}
		})
	}

	var id FlexID
	if err := json.Unmarshal([]byte(`[1]`), &id); err == nil {
		t.Error("Unmarshal([1]) error = nil, want failure")
	}
}

func TestMenuItem_Price(t *testing.T) {
	item := MenuItem{Name: "Espresso", PriceFirst: 3.5, PriceSecond: 4}

	if got := item.Price(FirstLocation); got != 3.5 {
		t.Errorf("Price(FirstLocation) = %v", got)
	}
	if got := item.Price(SecondLocation); got != 4 {
		t.Errorf("Price(SecondLocation) = %v", got)
	}
	// Unknown locations fall back to the first location's price.
	if got := item.Price(9); got != 3.5 {
		t.Errorf("Price(9) = %v", got)
	}
}

func TestTableOpenAndVisitActive(t *testing.T) {
	if !(Table{StartHour: "10:00"}).Open() {
		t.Error("table without finish hour should be open")
	}
	if (Table{StartHour: "10:00", FinishHour: "12:00"}).Open() {
		t.Error("table with finish hour should be closed")
	}
	if !(Visit{StartHour: "10:00"}).Active() {
		t.Error("visit without finish hour should be active")
	}
	if (Gameplay{StartHour: "10:00", FinishHour: "11:00"}).InProgress() {
		t.Error("gameplay with finish hour should not be in progress")
	}
}
