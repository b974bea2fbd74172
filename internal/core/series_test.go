package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	var p DailyPoint
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-15","adjustedClose":101.5}`), &p))
	assert.Equal(t, NewDate(2024, time.March, 15), p.Date)

	out, err := json.Marshal(p.Date)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(out))
}

func TestDate_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"plain", `"2023-01-02"`, NewDate(2023, time.January, 2), false},
		{"rfc3339", `"2023-01-02T00:00:00Z"`, NewDate(2023, time.January, 2), false},
		{"empty", `""`, Date{}, false},
		{"garbage", `"yesterday"`, Date{}, true},
		{"number", `20230102`, Date{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tc.input), &d)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(d.Time), "got %s", d)
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeSwing, ParseMode("swing"))
	assert.Equal(t, ModeSwing, ParseMode(" SWING "))
	assert.Equal(t, ModeLong, ParseMode("long"))
	assert.Equal(t, ModeLong, ParseMode(""))
	assert.Equal(t, ModeLong, ParseMode("weekly"))
}

func TestScoreResult_Score(t *testing.T) {
	r := ScoreResult{
		Reasons:  []ScoreReason{{Label: "a", Weight: 2}, {Label: "b", Weight: 1}},
		Counters: []ScoreReason{{Label: "c", Weight: -2}},
	}
	assert.Equal(t, 1.0, r.Score())
}

func TestValue(t *testing.T) {
	assert.Equal(t, 4.0, Value(nil, 4))
	assert.Equal(t, 2.5, Value(Float64(2.5), 4))
}
