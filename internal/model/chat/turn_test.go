package chat

import "testing"

func TestMoodValid(t *testing.T) {
	for _, m := range []Mood{MoodHappy, MoodSad, MoodStressed, MoodRelaxed, MoodDepressed} {
		if !m.Valid() {
			t.Fatalf("expected %q to be valid", m)
		}
	}
	for _, m := range []Mood{"", "happy", "Angry"} {
		if m.Valid() {
			t.Fatalf("expected %q to be invalid", m)
		}
	}
}
