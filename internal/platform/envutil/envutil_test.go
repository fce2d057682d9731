package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "unset", raw: "", want: time.Minute},
		{name: "seconds", raw: "90", want: 90 * time.Second},
		{name: "go duration", raw: "2h", want: 2 * time.Hour},
		{name: "garbage", raw: "soon", want: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVUTIL_TEST_DURATION", tt.raw)
			if got := Duration("ENVUTIL_TEST_DURATION", time.Minute); got != tt.want {
				t.Fatalf("Duration: want=%v got=%v", tt.want, got)
			}
		})
	}
}

func TestIntBoolList(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "12")
	t.Setenv("ENVUTIL_TEST_BOOL", "off")
	t.Setenv("ENVUTIL_TEST_LIST", " a, ,b ")
	if got := Int("ENVUTIL_TEST_INT", 1); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Bool("ENVUTIL_TEST_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	got := List("ENVUTIL_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
}
