package services

import "testing"

func TestSubjectSlug(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"Operating Systems", "operating-systems"},
		{"operating systems", "operating-systems"},
		{"  Operating   Systems  ", "operating-systems"},
		{"Data Structures & Algorithms", "data-structures--algorithms"},
		{"C++ Programming", "c-programming"},
		{"Maths-II", "maths-ii"},
		{"DBMS", "dbms"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tc := range cases {
		if got := SubjectSlug(tc.subject); got != tc.want {
			t.Errorf("SubjectSlug(%q) = %q, want %q", tc.subject, got, tc.want)
		}
	}
}

func TestSubjectSlugCollision(t *testing.T) {
	// Different spellings of the same subject must share one slug so
	// recomputes replace instead of fork.
	a := SubjectSlug("Operating Systems")
	b := SubjectSlug("OPERATING SYSTEMS")
	c := SubjectSlug("operating\tsystems")

	if a != b || b != c {
		t.Errorf("slugs diverged: %q, %q, %q", a, b, c)
	}
}
