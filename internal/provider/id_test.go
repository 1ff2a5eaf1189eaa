package provider

import "testing"

func TestMakeID(t *testing.T) {
	cases := map[string]string{
		"Deepgram":       "deepgram",
		"Deepgram Aura":  "deepgram-aura",
		"open_ai.stream": "open-ai-stream",
		"OpenAI":         "openai",
	}

	for name, want := range cases {
		if got := MakeID(name); got != want {
			t.Errorf("MakeID(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestUniqueID(t *testing.T) {
	taken := make(map[string]bool)

	first := UniqueID("Deepgram", taken)
	second := UniqueID("Deepgram", taken)
	third := UniqueID("deepgram", taken)

	if first != "deepgram" {
		t.Errorf("Expected 'deepgram', got %q", first)
	}
	if second != "deepgram-2" {
		t.Errorf("Expected 'deepgram-2', got %q", second)
	}
	if third != "deepgram-3" {
		t.Errorf("Expected 'deepgram-3', got %q", third)
	}
}
