package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeMarshalJSONFixedMillis(t *testing.T) {
	got, err := json.Marshal(NewTime(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != `"2000-01-01T00:00:00.000Z"` {
		t.Fatalf("unexpected JSON: %s", got)
	}
}

func TestTimeUnmarshalJSON(t *testing.T) {
	var ts Time
	if err := json.Unmarshal([]byte(`"2000-01-01T00:00:00.000Z"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ts.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", ts.Time)
	}

	prev := ts
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !ts.Equal(prev.Time) {
		t.Fatal("null should preserve the existing value")
	}

	if err := json.Unmarshal([]byte(`"not-a-date"`), &ts); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}

func TestFullYears(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		since time.Time
		want  int
	}{
		{"birthday today", time.Date(2008, 10, 15, 0, 0, 0, 0, time.UTC), 18},
		{"birthday tomorrow", time.Date(2008, 10, 16, 0, 0, 0, 0, time.UTC), 17},
		{"earlier month", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 26},
		{"future", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FullYears(tt.since, now); got != tt.want {
				t.Fatalf("FullYears = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2000, 1, 1, 23, 59, 0, 0, time.FixedZone("x", -3*3600))
	got := TruncateDay(in)
	if !got.Equal(time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day: %v", got)
	}
}
