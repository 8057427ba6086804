package check

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type offender struct {
	Tag   string `json:"tag"`
	Class string `json:"class"`
	Right int    `json:"right"`
}

func TestSet_Passed(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		want bool
	}{
		{"empty set passes", nil, true},
		{"all ok", Set{{Name: "a", Status: StatusOK}, {Name: "b", Status: StatusOK}}, true},
		{"one failure", Set{{Name: "a", Status: StatusOK}, {Name: "b", Status: StatusFail}}, false},
		{"zero status is not a pass", Set{{Name: "a"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Passed())
		})
	}
}

func TestSet_FailedAndGet(t *testing.T) {
	s := Set{
		{Name: "noHorizontalOverflow", Status: StatusOK},
		{Name: "gridTexture", Status: StatusFail},
		{Name: "footerVisible", Status: StatusFail},
	}

	failed := s.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "gridTexture", failed[0].Name)
	assert.Equal(t, "footerVisible", failed[1].Name)

	r, ok := s.Get("gridTexture")
	assert.True(t, ok)
	assert.False(t, r.OK())

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"noHorizontalOverflow", "gridTexture", "footerVisible"}, s.Names())
}

func TestSet_MarshalJSON(t *testing.T) {
	s := Set{
		{Name: "noHorizontalOverflow", Status: StatusOK, Payload: map[string]int{"scrollWidth": 1000}},
		{Name: "mobileNoOverflow", Status: StatusFail, Payload: []offender{{Tag: "PRE", Class: "code", Right: 395}}},
		{Name: "footerVisible", Status: StatusFail},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	want := `{"noHorizontalOverflow":true,"mobileNoOverflow":false,` +
		`"mobileNoOverflowDetails":[{"tag":"PRE","class":"code","right":395}],"footerVisible":false}`
	assert.Equal(t, want, string(data))
}

func TestSet_MarshalIndentKeepsOrder(t *testing.T) {
	s := Set{{Name: "b", Status: StatusOK}, {Name: "a", Status: StatusOK}}

	data, err := json.MarshalIndent(struct {
		Checks Set `json:"checks"`
	}{s}, "", "  ")
	require.NoError(t, err)

	out := string(data)
	assert.Less(t, strings.Index(out, `"b"`), strings.Index(out, `"a"`))
}

func TestSet_UnmarshalJSON(t *testing.T) {
	input := `{
		"noHorizontalOverflow": true,
		"mobileNoOverflow": false,
		"mobileNoOverflowDetails": [{"tag": "DIV", "class": "", "right": 390}],
		"linkContrast": true
	}`

	var s Set
	require.NoError(t, json.Unmarshal([]byte(input), &s))

	require.Len(t, s, 3)
	assert.Equal(t, []string{"noHorizontalOverflow", "mobileNoOverflow", "linkContrast"}, s.Names())
	assert.False(t, s.Passed())

	mobile, _ := s.Get("mobileNoOverflow")
	raw, ok := mobile.Payload.(json.RawMessage)
	require.True(t, ok, "payload should be raw JSON")
	var offenders []offender
	require.NoError(t, json.Unmarshal(raw, &offenders))
	assert.Equal(t, []offender{{Tag: "DIV", Right: 390}}, offenders)
}

func TestSet_UnmarshalJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not an object", `[true]`, "expected object"},
		{"non-boolean check", `{"footerVisible": "yes"}`, `check "footerVisible": expected boolean`},
		{"null check", `{"footerVisible": null}`, "expected boolean"},
		{"details for a passing check", `{"footerVisible": true, "footerVisibleDetails": {"detail": "no footer"}}`, `check "footerVisible": footerVisibleDetails on a passing check`},
		{"details without a check", `{"linkContrast": false, "gridTextureDetails": {"backgroundImage": "none"}}`, "gridTextureDetails without a matching check"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Set
			err := s.UnmarshalJSON([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSet_UnmarshalJSONDetailsBeforeCheck(t *testing.T) {
	var s Set
	require.NoError(t, json.Unmarshal([]byte(`{"footerVisibleDetails": {"detail": "no footer"}, "footerVisible": false}`), &s))

	require.Equal(t, []string{"footerVisible"}, s.Names())
	footer, _ := s.Get("footerVisible")
	assert.JSONEq(t, `{"detail": "no footer"}`, string(footer.Payload.(json.RawMessage)))
}

func TestSet_RoundTrip(t *testing.T) {
	in := Set{
		{Name: "gridTexture", Status: StatusFail, Payload: map[string]string{"backgroundImage": "none"}},
		{Name: "footerVisible", Status: StatusOK},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Set
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, in.Names(), out.Names())
	assert.Equal(t, in.Passed(), out.Passed())
	grid, _ := out.Get("gridTexture")
	assert.JSONEq(t, `{"backgroundImage":"none"}`, string(grid.Payload.(json.RawMessage)))
}
