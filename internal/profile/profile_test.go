package profile

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestAge(t *testing.T) {
	cases := []struct {
		name      string
		birthdate time.Time
		want      int
	}{
		{
			name:      "birthday already passed this year",
			birthdate: time.Date(1996, time.March, 1, 0, 0, 0, 0, time.UTC),
			want:      30,
		},
		{
			name:      "birthday later this year",
			birthdate: time.Date(1996, time.November, 1, 0, 0, 0, 0, time.UTC),
			want:      29,
		},
		{
			name:      "birthday today",
			birthdate: time.Date(1996, time.June, 15, 0, 0, 0, 0, time.UTC),
			want:      30,
		},
		{
			name:      "birthday tomorrow",
			birthdate: time.Date(1996, time.June, 16, 0, 0, 0, 0, time.UTC),
			want:      29,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &UserProfile{Birthdate: tc.birthdate}
			if got := p.Age(testNow); got != tc.want {
				t.Fatalf("Age() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAcceptsGender(t *testing.T) {
	cases := []struct {
		name   string
		prefs  *DatingPreferences
		gender string
		want   bool
	}{
		{"exact match", &DatingPreferences{GenderPreference: "female"}, "female", true},
		{"case insensitive", &DatingPreferences{GenderPreference: "Female"}, "FEMALE", true},
		{"mismatch", &DatingPreferences{GenderPreference: "female"}, "male", false},
		{"wildcard", &DatingPreferences{GenderPreference: GenderAny}, "nonbinary", true},
		{"nil preferences", nil, "female", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.prefs.AcceptsGender(tc.gender); got != tc.want {
				t.Fatalf("AcceptsGender(%q) = %v, want %v", tc.gender, got, tc.want)
			}
		})
	}
}

func TestAcceptsAgeBoundariesInclusive(t *testing.T) {
	prefs := &DatingPreferences{MinAge: 25, MaxAge: 35}

	cases := []struct {
		age  int
		want bool
	}{
		{24, false},
		{25, true},
		{30, true},
		{35, true},
		{36, false},
	}

	for _, tc := range cases {
		if got := prefs.AcceptsAge(tc.age); got != tc.want {
			t.Fatalf("AcceptsAge(%d) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestTagNames(t *testing.T) {
	names := TagNames([]Tag{
		{Name: "Hiking"},
		{Name: "  cooking  "},
		{Name: ""},
		{Name: "hiking"},
	})

	if len(names) != 2 {
		t.Fatalf("expected 2 distinct names, got %v", names)
	}
	for _, want := range []string{"hiking", "cooking"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("missing %q in %v", want, names)
		}
	}
}

func TestHasPreferences(t *testing.T) {
	var nilProfile *UserProfile
	if nilProfile.HasPreferences() {
		t.Fatal("nil profile must not report preferences")
	}
	if (&UserProfile{}).HasPreferences() {
		t.Fatal("profile without preferences must not report them")
	}
	p := &UserProfile{Preferences: &DatingPreferences{}}
	if !p.HasPreferences() {
		t.Fatal("profile with preferences must report them")
	}
}
