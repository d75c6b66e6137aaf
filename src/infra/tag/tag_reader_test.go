package tag

import "testing"

func TestParseReleaseDate(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"2008-11-14", "2008-11-14"},
		{"2008-11-14T12:00:00", "2008-11-14"},
		{"2008", "2008-01-01"},
		{" 2008 ", "2008-01-01"},
		{"", ""},
		{"0", ""},
		{"not a date", ""},
	}
	for _, c := range cases {
		if got := parseReleaseDate(c.value); got != c.want {
			t.Errorf("parseReleaseDate(%q) = %q, want %q", c.value, got, c.want)
		}
	}
}
