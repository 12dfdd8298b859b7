package services

import (
	"strings"
	"testing"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

func testComposer() *Composer {
	return NewComposer(logger.NewNop())
}

func elementWith(name, content string) *types.Element {
	return &types.Element{Name: name, Content: content}
}

func TestComposeFullContent_JoinsWithBlankLines(t *testing.T) {
	out, err := testComposer().ComposeSection(
		&types.Section{Name: "Body", ExtractionStrategy: types.ExtractFullContent},
		nil,
		[]*types.Element{elementWith("A", "First."), elementWith("B", "Second.")},
		nil,
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if out != "First.\n\nSecond." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestComposeFullContent_InjectsInstanceData(t *testing.T) {
	out, err := testComposer().ComposeSection(
		&types.Section{Name: "Body", ExtractionStrategy: types.ExtractFullContent},
		nil,
		[]*types.Element{elementWith("A", "Launching in {city}.")},
		map[string]string{"city": "Berlin"},
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if out != "Launching in Berlin." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestComposeFieldExtraction_PicksNamedFieldAcrossBlocks(t *testing.T) {
	content := "Key Message 1\nHeadline: Fast onboarding\nProof: 2x faster\n\n" +
		"Key Message 2\nHeadline: Lower cost\nProof: 30% cheaper\n"

	out, err := testComposer().ComposeSection(
		&types.Section{
			Name:               "Key Facts",
			ExtractionStrategy: types.ExtractFieldFromBlock,
			FieldPath:          "Headline",
			SelectionCount:     2,
		},
		nil,
		[]*types.Element{elementWith("Messages", content)},
		nil,
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if out != "- Fast onboarding\n- Lower cost" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestComposeFiveWs_SlotTemplate(t *testing.T) {
	out, err := testComposer().ComposeSection(
		&types.Section{Name: "Lede", ExtractionStrategy: types.ExtractFiveWs},
		nil,
		nil,
		map[string]string{
			"who":   "Acme",
			"what":  "launched Widget",
			"when":  "today",
			"where": "Berlin",
			"why":   "to cut costs.",
		},
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if out != "Berlin, today — Acme launched Widget to cut costs." {
		t.Fatalf("unexpected lede: %q", out)
	}
}

func TestComposeInstanceData_QuoteWithAttribution(t *testing.T) {
	section := &types.Section{
		Name:               "Quote 1",
		ExtractionStrategy: types.ExtractInstanceData,
		InstanceFields:     []string{"quote1_text", "quote1_speaker", "quote1_title"},
	}
	out, err := testComposer().ComposeSection(section, nil, nil, map[string]string{
		"quote1_text":    "This changes everything.",
		"quote1_speaker": "Dana Reyes",
		"quote1_title":   "CEO",
	})
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	want := "\"This changes everything.\"\n\n— Dana Reyes, CEO"
	if out != want {
		t.Fatalf("unexpected quote:\n%q\nwant\n%q", out, want)
	}
}

func TestComposeInstanceData_EmptyElementListStillComposes(t *testing.T) {
	// instance_data sections must not fail on empty element bindings.
	section := &types.Section{
		Name:               "Quote 1",
		ExtractionStrategy: types.ExtractInstanceData,
		InstanceFields:     []string{"quote1_text"},
	}
	out, err := testComposer().ComposeSection(section, nil, []*types.Element{}, map[string]string{
		"quote1_text": "Works without elements.",
	})
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty output from instance data alone")
	}
}

func TestComposeStructuredList_BulletsAndQuantityLimit(t *testing.T) {
	content := "First point with enough length.\n\nSecond point with enough length.\n\nThird point with enough length."
	binding := &types.SectionBinding{BindingRules: &types.BindingRule{Quantity: 2}}

	out, err := testComposer().ComposeSection(
		&types.Section{Name: "Key Facts", ExtractionStrategy: types.ExtractStructuredList, Format: "bullets"},
		binding,
		[]*types.Element{elementWith("Facts", content)},
		nil,
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 items, got %d: %q", len(lines), out)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "- ") {
			t.Fatalf("expected bullet prefix: %q", line)
		}
	}
}

func TestComposeKeyMessage_BoldHeadlineAndWordCap(t *testing.T) {
	content := "**Headline**: Acme launches the fastest widget platform ever built for enterprise logistics teams"

	out, err := testComposer().ComposeSection(
		&types.Section{Name: "Headline", ExtractionStrategy: types.ExtractKeyMessage, MaxWords: 6},
		nil,
		[]*types.Element{elementWith("Message", content)},
		nil,
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if got := len(strings.Fields(out)); got > 6 {
		t.Fatalf("headline exceeds word cap: %d words (%q)", got, out)
	}
	if !strings.HasPrefix(out, "Acme launches") {
		t.Fatalf("unexpected headline: %q", out)
	}
}

func TestComposeQuote_PrefersInstanceFieldsOverElement(t *testing.T) {
	section := &types.Section{Name: "Quote 2", ExtractionStrategy: types.ExtractQuote, QuoteNumber: 2}
	out, err := testComposer().ComposeSection(section, nil,
		[]*types.Element{elementWith("Quote", "element fallback text")},
		map[string]string{
			"quote2_text":    "From the customer.",
			"quote2_speaker": "Lee Park",
		},
	)
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if !strings.Contains(out, "From the customer.") || !strings.Contains(out, "— Lee Park") {
		t.Fatalf("unexpected quote: %q", out)
	}
}

func TestComposeComposed_EmptyElementListUsesInstanceData(t *testing.T) {
	section := &types.Section{
		Name:               "Lede",
		ExtractionStrategy: types.ExtractComposed,
		CompositionSources: []string{
			"instance_data.who", "instance_data.what", "instance_data.when",
			"instance_data.where", "instance_data.why",
		},
	}
	out, err := testComposer().ComposeSection(section, nil, nil, map[string]string{
		"who":   "Acme",
		"what":  "shipped v2",
		"when":  "Monday",
		"where": "Austin",
		"why":   "after customer demand.",
	})
	if err != nil {
		t.Fatalf("ComposeSection: %v", err)
	}
	if !strings.HasPrefix(out, "Austin, Monday — Acme shipped v2") {
		t.Fatalf("unexpected composed lede: %q", out)
	}
}
