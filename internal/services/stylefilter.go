package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/storyos/storyos-backend/internal/clients/openai"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

// StyleConstraints carries the profile-specific bounds for one filter call.
type StyleConstraints struct {
	MaxWords  int
	ItemCount int
	Format    string
	// Instruction is the resolved profile's transformation instruction.
	Instruction string
}

// StyleFilter rewrites composed section text under a brand voice. The filter
// is the only external collaborator in a render; callers must treat any error
// as non-fatal and fall back to verbatim content.
type StyleFilter interface {
	Name() string
	Transform(ctx context.Context, text string, voice *types.Voice, c StyleConstraints) (transformed string, rationale string, err error)
}

// ---------------------------------------------------------------------------
// LLM-backed filter
// ---------------------------------------------------------------------------

type llmStyleFilter struct {
	log    *logger.Logger
	client openai.Client
}

func NewLLMStyleFilter(client openai.Client, baseLog *logger.Logger) StyleFilter {
	return &llmStyleFilter{
		log:    baseLog.With("service", "LLMStyleFilter"),
		client: client,
	}
}

func (f *llmStyleFilter) Name() string { return "llm" }

var transformSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"transformed_content": map[string]any{"type": "string"},
		"transformation_notes": map[string]any{"type": "string"},
	},
	"required":             []string{"transformed_content", "transformation_notes"},
	"additionalProperties": false,
}

func (f *llmStyleFilter) Transform(ctx context.Context, text string, voice *types.Voice, c StyleConstraints) (string, string, error) {
	system := "You are a professional copyeditor transforming content to match a specific brand voice. " +
		"Apply the transformation instructions below while following the constraints."

	user := buildTransformPrompt(text, voice, c)

	out, err := f.client.GenerateJSON(ctx, system, user, "voice_transform", transformSchema)
	if err != nil {
		return "", "", fmt.Errorf("style filter call: %w", err)
	}

	transformed, _ := out["transformed_content"].(string)
	rationale, _ := out["transformation_notes"].(string)
	if strings.TrimSpace(transformed) == "" {
		return "", "", fmt.Errorf("style filter returned empty content")
	}
	return transformed, rationale, nil
}

func buildTransformPrompt(text string, voice *types.Voice, c StyleConstraints) string {
	var b strings.Builder

	b.WriteString("# Transformation Instructions\n")
	b.WriteString(c.Instruction)
	b.WriteString("\n\n")

	if c.MaxWords > 0 || c.ItemCount > 0 || c.Format != "" {
		b.WriteString("# Constraints\n")
		if c.MaxWords > 0 {
			fmt.Fprintf(&b, "- Maximum words: %d\n", c.MaxWords)
		}
		if c.ItemCount > 0 {
			fmt.Fprintf(&b, "- List items: exactly %d, same order\n", c.ItemCount)
		}
		if c.Format != "" {
			fmt.Fprintf(&b, "- Format: %s\n", c.Format)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Brand Voice\n")
	if voice != nil {
		if len(voice.Traits) > 0 {
			fmt.Fprintf(&b, "Traits: %s\n", strings.Join(voice.Traits, ", "))
		}
		if tr := voice.ToneRules; tr != nil {
			var tone []string
			if tr.Formality != "" {
				tone = append(tone, "formality: "+tr.Formality)
			}
			if tr.PointOfView != "" {
				tone = append(tone, "point of view: "+tr.PointOfView)
			}
			if tr.SentenceLength != "" {
				tone = append(tone, "sentence length: "+tr.SentenceLength)
			}
			if tr.Voice != "" {
				tone = append(tone, "voice: "+tr.Voice)
			}
			if tr.Tense != "" {
				tone = append(tone, "tense: "+tr.Tense)
			}
			if len(tone) > 0 {
				fmt.Fprintf(&b, "Tone: %s\n", strings.Join(tone, ", "))
			}
		}
		if lex := voice.Lexicon; lex != nil {
			if len(lex.Preferred) > 0 {
				b.WriteString("\n## Word Replacements\n")
				for old, preferred := range lex.Preferred {
					fmt.Fprintf(&b, "- Replace '%s' with '%s'\n", old, preferred)
				}
			}
			if len(lex.Banned) > 0 {
				fmt.Fprintf(&b, "Banned terms: %s\n", strings.Join(lex.Banned, ", "))
			}
		}
		if gr := voice.StyleGuardrails; gr != nil {
			if len(gr.Do) > 0 {
				fmt.Fprintf(&b, "Do: %s\n", strings.Join(gr.Do, "; "))
			}
			if len(gr.Dont) > 0 {
				fmt.Fprintf(&b, "Don't: %s\n", strings.Join(gr.Dont, "; "))
			}
		}
	}
	b.WriteString("\n# Content to Transform\n")
	b.WriteString(text)
	return b.String()
}

// ---------------------------------------------------------------------------
// Deterministic rule-based filter
// ---------------------------------------------------------------------------

// ruleStyleFilter is the local fallback: lexicon substitution, preferred-term
// alignment, formality and perspective adjustment. It never fails and is used
// both when no LLM is configured and when the LLM call errors mid-render.
type ruleStyleFilter struct {
	log *logger.Logger
}

func NewRuleStyleFilter(baseLog *logger.Logger) StyleFilter {
	return &ruleStyleFilter{log: baseLog.With("service", "RuleStyleFilter")}
}

func (f *ruleStyleFilter) Name() string { return "rules" }

func (f *ruleStyleFilter) Transform(ctx context.Context, text string, voice *types.Voice, c StyleConstraints) (string, string, error) {
	if voice == nil {
		return text, "", nil
	}

	var applied []string
	out := text

	if lex := voice.Lexicon; lex != nil {
		if len(lex.Branded) > 0 {
			out = applyTermMap(out, lex.Branded)
			applied = append(applied, "lexicon substitution")
		}
		if len(lex.Preferred) > 0 {
			out = applyTermMap(out, lex.Preferred)
			applied = append(applied, "preferred terminology")
		}
	}

	if tr := voice.ToneRules; tr != nil {
		switch strings.ToLower(tr.Formality) {
		case "formal", "high", "medium-high":
			out = expandContractions(out)
			applied = append(applied, "contraction expansion")
		case "casual", "low":
			out = applyContractions(out)
			applied = append(applied, "contraction use")
		}
		if strings.Contains(strings.ToLower(tr.PointOfView), "third") && voice.CompanyName != "" {
			out = shiftToThirdPerson(out, voice.CompanyName)
			applied = append(applied, "third-person perspective")
		}
	}

	if len(applied) == 0 {
		return out, "", nil
	}
	return out, "Applied " + strings.Join(applied, ", ") + ".", nil
}

// applyTermMap replaces each key with its value, case-insensitively and on
// word boundaries only.
func applyTermMap(text string, terms map[string]string) string {
	for from, to := range terms {
		if strings.TrimSpace(from) == "" || to == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, to)
	}
	return text
}

var contractionPairs = [][2]string{
	{"won't", "will not"},
	{"can't", "cannot"},
	{"don't", "do not"},
	{"doesn't", "does not"},
	{"we're", "we are"},
	{"it's", "it is"},
	{"that's", "that is"},
	{"what's", "what is"},
}

func expandContractions(text string) string {
	for _, pair := range contractionPairs {
		text = replaceWordPreservingCase(text, pair[0], pair[1])
	}
	return text
}

func applyContractions(text string) string {
	for _, pair := range contractionPairs {
		text = replaceWordPreservingCase(text, pair[1], pair[0])
	}
	return text
}

func replaceWordPreservingCase(text, from, to string) string {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(from) + `\b`)
	if err != nil {
		return text
	}
	text = re.ReplaceAllString(text, to)

	// Capitalized occurrence at sentence position.
	fromCap := strings.ToUpper(from[:1]) + from[1:]
	toCap := strings.ToUpper(to[:1]) + to[1:]
	reCap, err := regexp.Compile(`\b` + regexp.QuoteMeta(fromCap) + `\b`)
	if err != nil {
		return text
	}
	return reCap.ReplaceAllString(text, toCap)
}

var (
	reFirstPersonWe  = regexp.MustCompile(`(?:^|\b)[Ww]e\b`)
	reFirstPersonOur = regexp.MustCompile(`(?:^|\b)[Oo]ur\b`)
)

func shiftToThirdPerson(text, companyName string) string {
	text = reFirstPersonWe.ReplaceAllStringFunc(text, func(m string) string {
		prefix := strings.TrimSuffix(strings.TrimSuffix(m, "We"), "we")
		return prefix + companyName
	})
	text = reFirstPersonOur.ReplaceAllStringFunc(text, func(m string) string {
		prefix := strings.TrimSuffix(strings.TrimSuffix(m, "Our"), "our")
		return prefix + companyName + "'s"
	})
	return text
}
