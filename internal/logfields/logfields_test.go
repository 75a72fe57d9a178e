package logfields

import (
	"errors"
	"testing"
)

// TestHelperKeyNames verifies helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		got     interface{ String() string }
	}{
		{"UnitID", KeyUnitID, "u-1", UnitID("u-1")},
		{"ChecklistID", KeyChecklistID, "c-1", ChecklistID("c-1")},
		{"TaskID", KeyTaskID, "t-1", TaskID("t-1")},
		{"Op", KeyOp, "submit", Op("submit")},
		{"Status", KeyStatus, "in_progress", Status("in_progress")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := tc.attrKey + "=" + tc.attrVal
			if tc.got.String() != want {
				t.Errorf("expected %q, got %q", want, tc.got.String())
			}
		})
	}
}

func TestErrorAttr(t *testing.T) {
	if got := Error(nil).String(); got != KeyError+"=" {
		t.Errorf("nil error attr = %q", got)
	}
	if got := Error(errors.New("boom")).String(); got != KeyError+"=boom" {
		t.Errorf("error attr = %q", got)
	}
}
