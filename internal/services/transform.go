package services

import (
	"context"
	"fmt"

	rediscache "github.com/storyos/storyos-backend/internal/clients/redis"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

// TransformOutcome is the result of applying a resolved profile to one
// section's composed text.
type TransformOutcome struct {
	Text      string
	Rationale string
	Profile   ProfileKind
	// Filter names the filter that produced Text ("" when no filter ran,
	// e.g. preserve or a reduce_only below its limit).
	Filter string
	// FilterFailed marks sections left verbatim because the filter chain
	// errored. A render with failed sections still succeeds.
	FilterFailed bool
}

// Transformer applies a resolved transformation profile to composed section
// text. The filter chain is primary then fallback then verbatim; a filter
// error is never fatal to the render.
type Transformer struct {
	log      *logger.Logger
	primary  StyleFilter
	fallback StyleFilter
	cache    rediscache.FilterCache
}

// NewTransformer wires the filter chain. fallback and cache may be nil.
func NewTransformer(primary, fallback StyleFilter, cache rediscache.FilterCache, baseLog *logger.Logger) *Transformer {
	return &Transformer{
		log:      baseLog.With("service", "Transformer"),
		primary:  primary,
		fallback: fallback,
		cache:    cache,
	}
}

// TransformSection applies profile to text under voice. Constraints come from
// the section definition: MaxWords bounds voice_constrained and arms
// reduce_only, the current item count pins voice_formatted.
func (t *Transformer) TransformSection(ctx context.Context, section *types.Section, text string, voice *types.Voice, profile Profile) TransformOutcome {
	out := TransformOutcome{Text: text, Profile: profile.Kind}
	if text == "" {
		return out
	}

	switch profile.Kind {
	case ProfilePreserve:
		return out

	case ProfileReduceOnly:
		if section.MaxWords <= 0 || wordCount(text) <= section.MaxWords {
			return out
		}
		c := StyleConstraints{MaxWords: section.MaxWords, Instruction: profile.Instruction}
		out = t.invoke(ctx, text, voice, c, profile)
		// The filter shortens; the bound is hard either way.
		if wordCount(out.Text) > section.MaxWords {
			out.Text = truncateWords(out.Text, section.MaxWords)
		}
		return out

	case ProfileVoiceConstrained:
		c := StyleConstraints{MaxWords: section.MaxWords, Instruction: profile.Instruction}
		out = t.invoke(ctx, text, voice, c, profile)
		if section.MaxWords > 0 && wordCount(out.Text) > section.MaxWords {
			out.Text = truncateWords(out.Text, section.MaxWords)
		}
		return out

	case ProfileVoiceFormatted:
		items := countListItems(text)
		c := StyleConstraints{ItemCount: items, Format: section.Format, Instruction: profile.Instruction}
		out = t.invoke(ctx, text, voice, c, profile)
		// A filter that broke the list structure is worse than no
		// transformation at all.
		if items > 0 && countListItems(out.Text) != items {
			t.log.Warn("filter changed list item count, reverting to composed text",
				"section", section.Name, "want", items, "got", countListItems(out.Text))
			out.Text = text
			out.Rationale = ""
		}
		return out

	default: // voice_full
		c := StyleConstraints{Instruction: profile.Instruction}
		return t.invoke(ctx, text, voice, c, profile)
	}
}

func (t *Transformer) invoke(ctx context.Context, text string, voice *types.Voice, c StyleConstraints, profile Profile) TransformOutcome {
	out := TransformOutcome{Text: text, Profile: profile.Kind}

	// reduce_only may shorten but must keep the original style, so the
	// filters never see the voice for profiles that withhold it.
	if !profile.ApplyVoice {
		voice = nil
	}

	key := ""
	if t.cache != nil && voice != nil {
		key = rediscache.CacheKey(text, voice.ID.String(), voice.Version, string(profile.Kind),
			fmt.Sprintf("mw=%d;items=%d;fmt=%s", c.MaxWords, c.ItemCount, c.Format))
		if hit, ok := t.cache.Get(ctx, key); ok {
			out.Text = hit.Text
			out.Rationale = hit.Rationale
			out.Filter = "cache"
			return out
		}
	}

	for _, f := range []StyleFilter{t.primary, t.fallback} {
		if f == nil {
			continue
		}
		transformed, rationale, err := f.Transform(ctx, text, voice, c)
		if err != nil {
			t.log.Warn("style filter failed, trying next in chain",
				"filter", f.Name(), "profile", profile.Kind, "error", err)
			continue
		}
		out.Text = transformed
		out.Rationale = rationale
		out.Filter = f.Name()
		if key != "" {
			t.cache.Set(ctx, key, rediscache.CachedTransform{Text: transformed, Rationale: rationale})
		}
		return out
	}

	out.FilterFailed = true
	return out
}
