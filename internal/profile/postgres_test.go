package profile

import (
	"testing"
	"time"
)

func TestBirthdateWindow(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	earliest, latest := birthdateWindow(now, 25, 35)

	inWindow := func(birthdate time.Time) bool {
		return birthdate.After(earliest) && !birthdate.After(latest)
	}

	cases := []struct {
		name      string
		birthdate time.Time
		want      bool
	}{
		{
			name:      "turned 25 today",
			birthdate: now.AddDate(-25, 0, 0),
			want:      true,
		},
		{
			name:      "turns 25 tomorrow",
			birthdate: now.AddDate(-25, 0, 0).AddDate(0, 0, 1),
			want:      false,
		},
		{
			name:      "turned 35 today",
			birthdate: now.AddDate(-35, 0, 0),
			want:      true,
		},
		{
			name:      "turns 36 today",
			birthdate: now.AddDate(-36, 0, 0),
			want:      false,
		},
		{
			name:      "turns 36 tomorrow",
			birthdate: now.AddDate(-36, 0, 0).AddDate(0, 0, 1),
			want:      true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inWindow(tc.birthdate); got != tc.want {
				t.Fatalf("birthdate %s in window = %v, want %v",
					tc.birthdate.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestBirthdateWindowAgreesWithAge(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	prefs := &DatingPreferences{MinAge: 25, MaxAge: 35}
	earliest, latest := birthdateWindow(now, prefs.MinAge, prefs.MaxAge)

	// The SQL bounds and the in-process age check must classify the same
	// birthdates as eligible.
	for days := 0; days < 3; days++ {
		for _, boundary := range []time.Time{earliest, latest} {
			birthdate := boundary.AddDate(0, 0, days-1)
			p := &UserProfile{Birthdate: birthdate}

			inWindow := birthdate.After(earliest) && !birthdate.After(latest)
			if accepts := prefs.AcceptsAge(p.Age(now)); accepts != inWindow {
				t.Fatalf("birthdate %s: AcceptsAge = %v, window = %v",
					birthdate.Format("2006-01-02"), accepts, inWindow)
			}
		}
	}
}
