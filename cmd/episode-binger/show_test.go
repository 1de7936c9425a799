package main

import "testing"

func TestDeriveTitle(t *testing.T) {
	cases := map[string]string{
		"/videos/show.s01e01-the_pilot.mp4": "Show S01e01 The Pilot",
		"plain.mp4":                         "Plain",
		"":                                  "",
	}
	for path, want := range cases {
		if got := deriveTitle(path); got != want {
			t.Errorf("deriveTitle(%q) = %q, want %q", path, got, want)
		}
	}
}
