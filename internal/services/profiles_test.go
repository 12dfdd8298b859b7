package services

import "testing"

func TestResolveProfile_TemplateOverrideWins(t *testing.T) {
	p := ResolveProfile("Body", "preserve", "voice_constrained")
	if p.Kind != ProfilePreserve {
		t.Fatalf("expected template override to win, got %q", p.Kind)
	}
}

func TestResolveProfile_StoryModelOverrideBeatsDefaults(t *testing.T) {
	p := ResolveProfile("Body", "", "reduce_only")
	if p.Kind != ProfileReduceOnly {
		t.Fatalf("expected story model override, got %q", p.Kind)
	}
}

func TestResolveProfile_SectionDefaults(t *testing.T) {
	cases := map[string]ProfileKind{
		"Boilerplate": ProfileReduceOnly,
		"Headline":    ProfileVoiceConstrained,
		"Key Facts":   ProfileVoiceFormatted,
		"Body":        ProfileVoiceFull,
		"Citation":    ProfilePreserve,
	}
	for section, want := range cases {
		if got := ResolveProfile(section, "", "").Kind; got != want {
			t.Fatalf("section %q: expected %q, got %q", section, want, got)
		}
	}
}

func TestResolveProfile_QuoteSectionsPreservedByPrefix(t *testing.T) {
	for _, section := range []string{"Quote", "Quote 1", "Quote 2"} {
		if got := ResolveProfile(section, "", "").Kind; got != ProfilePreserve {
			t.Fatalf("section %q: expected preserve, got %q", section, got)
		}
	}
}

func TestResolveProfile_UnknownSectionFallsBackToVoiceFull(t *testing.T) {
	if got := ResolveProfile("Roadmap", "", "").Kind; got != ProfileVoiceFull {
		t.Fatalf("expected voice_full fallback, got %q", got)
	}
}

func TestResolveProfile_InvalidOverrideFallsThrough(t *testing.T) {
	if got := ResolveProfile("Boilerplate", "shout_mode", "").Kind; got != ProfileReduceOnly {
		t.Fatalf("invalid override must fall through to defaults, got %q", got)
	}
}
