package resource

import "testing"

func TestFormatETag(t *testing.T) {
	if got := FormatETag(3); got != `W/"3"` {
		t.Errorf("FormatETag(3) = %q", got)
	}
}

func TestParseETag(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`W/"3"`, 3, false},
		{`"7"`, 7, false},
		{`12`, 12, false},
		{`  W/"5" `, 5, false},
		{`W/"abc"`, 0, true},
		{``, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseETag(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseETag(%q): want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseETag(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseETag(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestETagRoundTrip(t *testing.T) {
	for _, v := range []int{1, 2, 42} {
		got, err := ParseETag(FormatETag(v))
		if err != nil || got != v {
			t.Errorf("round trip %d: got %d, err %v", v, got, err)
		}
	}
}
