package services

import "strings"

// ProfileKind is one of the five fixed transformation profiles governing how
// aggressively the style filter may rewrite a section's composed text.
type ProfileKind string

const (
	ProfilePreserve         ProfileKind = "preserve"
	ProfileReduceOnly       ProfileKind = "reduce_only"
	ProfileVoiceConstrained ProfileKind = "voice_constrained"
	ProfileVoiceFormatted   ProfileKind = "voice_formatted"
	ProfileVoiceFull        ProfileKind = "voice_full"
)

// Profile bundles a kind with the instruction text handed to the style
// filter. Profiles are static; they are resolved, not persisted.
type Profile struct {
	Kind        ProfileKind
	Name        string
	Instruction string
	ApplyVoice  bool
}

var profileDefs = map[ProfileKind]Profile{
	ProfilePreserve: {
		Kind: ProfilePreserve,
		Name: "Preserve",
		Instruction: "Do not transform this content. Return it exactly as provided, word-for-word. " +
			"This content must remain verbatim.",
		ApplyVoice: false,
	},
	ProfileReduceOnly: {
		Kind: ProfileReduceOnly,
		Name: "Reduce Only",
		Instruction: "Preserve the original voice, tone, and meaning of this content. " +
			"Only reduce length to satisfy the stated limit; make no other changes. " +
			"Do NOT apply brand voice transformation.",
		ApplyVoice: false,
	},
	ProfileVoiceConstrained: {
		Kind: ProfileVoiceConstrained,
		Name: "Voice Constrained",
		Instruction: "Transform this content to match the brand voice fully. " +
			"CRITICAL: you must satisfy the exact length constraint. " +
			"The meaning must stay consistent; do not add or remove information.",
		ApplyVoice: true,
	},
	ProfileVoiceFormatted: {
		Kind: ProfileVoiceFormatted,
		Name: "Voice Formatted",
		Instruction: "Transform this content to match the brand voice. " +
			"Maintain the list format and item count exactly; transform each item independently.",
		ApplyVoice: true,
	},
	ProfileVoiceFull: {
		Kind: ProfileVoiceFull,
		Name: "Voice Full",
		Instruction: "Transform this content fully to match the brand voice: lexicon, tone, " +
			"sentence structure, and style. Maintain overall structure and meaning.",
		ApplyVoice: true,
	},
}

// ProfileByKind returns the static definition for kind, falling back to
// voice_full for unknown kinds.
func ProfileByKind(kind ProfileKind) Profile {
	if p, ok := profileDefs[kind]; ok {
		return p
	}
	return profileDefs[ProfileVoiceFull]
}

// ValidProfileKind reports whether s names one of the five profiles.
func ValidProfileKind(s string) bool {
	_, ok := profileDefs[ProfileKind(s)]
	return ok
}

// sectionDefaults maps exact section names to their default profile.
var sectionDefaults = map[string]ProfileKind{
	"Citation":            ProfilePreserve,
	"Attribution":         ProfilePreserve,
	"Boilerplate":         ProfileReduceOnly,
	"About":               ProfileReduceOnly,
	"Company Description": ProfileReduceOnly,
	"Headline":            ProfileVoiceConstrained,
	"Title":               ProfileVoiceConstrained,
	"Subhead":             ProfileVoiceConstrained,
	"Tagline":             ProfileVoiceConstrained,
	"Key Facts":           ProfileVoiceFormatted,
	"Bullet Points":       ProfileVoiceFormatted,
	"List":                ProfileVoiceFormatted,
	"Features":            ProfileVoiceFormatted,
	"Benefits":            ProfileVoiceFormatted,
	"Lede":                ProfileVoiceFull,
	"Body":                ProfileVoiceFull,
	"Introduction":        ProfileVoiceFull,
	"Paragraph":           ProfileVoiceFull,
	"Conclusion":          ProfileVoiceFull,
	"Problem":             ProfileVoiceFull,
	"Solution":            ProfileVoiceFull,
	"Agitate":             ProfileVoiceFull,
}

type profileResolver func(sectionName, templateOverride, storyModelOverride string) (ProfileKind, bool)

// profileCascade is tried in precedence order; each resolver either claims
// the lookup or falls through to the next.
var profileCascade = []profileResolver{
	// 1. Template-level override (highest).
	func(_, templateOverride, _ string) (ProfileKind, bool) {
		if templateOverride != "" && ValidProfileKind(templateOverride) {
			return ProfileKind(templateOverride), true
		}
		return "", false
	},
	// 2. Story-model-level override.
	func(_, _, storyModelOverride string) (ProfileKind, bool) {
		if storyModelOverride != "" && ValidProfileKind(storyModelOverride) {
			return ProfileKind(storyModelOverride), true
		}
		return "", false
	},
	// 3. Static section-name default table. "Quote", "Quote 1", ... are
	// matched by prefix so every quote slot stays verbatim.
	func(sectionName, _, _ string) (ProfileKind, bool) {
		if strings.HasPrefix(sectionName, "Quote") {
			return ProfilePreserve, true
		}
		if kind, ok := sectionDefaults[sectionName]; ok {
			return kind, true
		}
		return "", false
	},
}

// ResolveProfile walks the cascade for (section, template override, story
// model override) and falls back to voice_full.
func ResolveProfile(sectionName, templateOverride, storyModelOverride string) Profile {
	for _, resolve := range profileCascade {
		if kind, ok := resolve(sectionName, templateOverride, storyModelOverride); ok {
			return ProfileByKind(kind)
		}
	}
	return ProfileByKind(ProfileVoiceFull)
}
