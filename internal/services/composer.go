package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

// Composer produces raw section text from a binding, its resolved elements,
// and the deliverable's instance data. Composition is deterministic; voice
// styling happens afterwards in the transformation step.
type Composer struct {
	log *logger.Logger
}

func NewComposer(baseLog *logger.Logger) *Composer {
	return &Composer{log: baseLog.With("service", "Composer")}
}

// ComposeSection dispatches on the section's extraction strategy. A nil
// section definition (binding without a story-model slot) composes
// full_content. An empty element list is valid for the instance_data and
// composed strategies: those sections build entirely from instance data.
func (c *Composer) ComposeSection(
	section *types.Section,
	binding *types.SectionBinding,
	elements []*types.Element,
	instanceData map[string]string,
) (string, error) {
	strategy := types.ExtractFullContent
	if section != nil && section.ExtractionStrategy != "" {
		strategy = section.ExtractionStrategy
	}

	switch strategy {
	case types.ExtractFullContent:
		return composeFullContent(elements, instanceData), nil
	case types.ExtractFieldFromBlock:
		return composeFieldExtraction(section, elements), nil
	case types.ExtractFiveWs:
		return composeFiveWs(elements, instanceData), nil
	case types.ExtractComposed:
		return composeFromSources(section, elements, instanceData), nil
	case types.ExtractInstanceData:
		return composeInstanceData(section, instanceData), nil
	case types.ExtractStructuredList:
		return composeStructuredList(section, binding, elements), nil
	case types.ExtractKeyMessage:
		return composeKeyMessage(section, elements), nil
	case types.ExtractQuote:
		return composeQuote(section, elements, instanceData), nil
	default:
		return "", fmt.Errorf("unknown extraction strategy %q", strategy)
	}
}

// composeFullContent concatenates element content with blank-line
// separators, injecting {field} placeholders from instance data.
func composeFullContent(elements []*types.Element, instanceData map[string]string) string {
	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		if el == nil || el.Content == "" {
			continue
		}
		parts = append(parts, injectInstanceData(el.Content, instanceData))
	}
	return strings.Join(parts, "\n\n")
}

// Element content for field extraction is a sequence of "Key Message N"
// blocks, each holding "Label: value" lines.
var reKeyMessageBlock = regexp.MustCompile(`(?m)^Key Message \d+`)

func composeFieldExtraction(section *types.Section, elements []*types.Element) string {
	if len(elements) == 0 || elements[0] == nil {
		return ""
	}
	content := elements[0].Content

	fieldPath := "Headline"
	count := 1
	if section != nil {
		if section.FieldPath != "" {
			fieldPath = section.FieldPath
		}
		if section.SelectionCount > 0 {
			count = section.SelectionCount
		}
	}

	blocks := splitOnBlockHeaders(content)
	fieldRe, err := regexp.Compile(`(?im)^` + regexp.QuoteMeta(fieldPath) + `:\s*(.+)$`)
	if err != nil {
		return ""
	}

	var values []string
	for _, block := range blocks {
		if m := fieldRe.FindStringSubmatch(block); m != nil {
			values = append(values, strings.TrimSpace(m[1]))
			if len(values) >= count {
				break
			}
		}
	}

	if len(values) == 0 {
		return ""
	}
	if count == 1 {
		return values[0]
	}
	for i, v := range values {
		values[i] = "- " + v
	}
	return strings.Join(values, "\n")
}

// splitOnBlockHeaders splits content at each "Key Message N" header,
// keeping the header with its block.
func splitOnBlockHeaders(content string) []string {
	idxs := reKeyMessageBlock.FindAllStringIndex(content, -1)
	if len(idxs) == 0 {
		return []string{content}
	}
	var blocks []string
	for i, idx := range idxs {
		end := len(content)
		if i+1 < len(idxs) {
			end = idxs[i+1][0]
		}
		block := strings.TrimSpace(content[idx[0]:end])
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// composeFiveWs merges who/what/when/where/why instance fields with the bound
// element through a fixed lede slot template: "WHERE, WHEN — WHO WHAT. WHY."
// An element whose content carries placeholders is used as the template
// instead.
func composeFiveWs(elements []*types.Element, instanceData map[string]string) string {
	var elementContent string
	if len(elements) > 0 && elements[0] != nil {
		elementContent = elements[0].Content
	}

	if strings.Contains(elementContent, "{who}") || strings.Contains(elementContent, "{what}") {
		return injectInstanceData(elementContent, instanceData)
	}

	who := instanceData["who"]
	what := instanceData["what"]
	when := instanceData["when"]
	where := instanceData["where"]
	why := instanceData["why"]

	if who == "" && what == "" {
		return elementContent
	}

	var lede string
	switch {
	case where != "" && when != "":
		lede = fmt.Sprintf("%s, %s — %s %s", where, when, who, what)
	case when != "":
		lede = fmt.Sprintf("%s — %s %s", when, who, what)
	default:
		lede = fmt.Sprintf("%s %s", who, what)
	}
	if why != "" {
		lede += " " + why
	}
	return strings.TrimSuffix(strings.TrimSpace(lede), ".") + "."
}

// composeFromSources builds context from the section's composition sources
// ("instance_data.<field>" and "element.<name>") and merges it. When all five
// Ws are present the lede slot template is used and any referenced element
// content is appended as a follow-on paragraph.
func composeFromSources(section *types.Section, elements []*types.Element, instanceData map[string]string) string {
	if section == nil || len(section.CompositionSources) == 0 {
		return ""
	}

	ctxVals := map[string]string{}
	var order []string
	for _, source := range section.CompositionSources {
		switch {
		case strings.HasPrefix(source, "instance_data."):
			field := strings.TrimPrefix(source, "instance_data.")
			ctxVals[field] = instanceData[field]
			order = append(order, field)
		case strings.HasPrefix(source, "element."):
			name := strings.TrimPrefix(source, "element.")
			for _, el := range elements {
				if el != nil && el.Name == name {
					ctxVals[name] = el.Content
					order = append(order, name)
					break
				}
			}
		}
	}

	fiveWs := []string{"who", "what", "when", "where", "why"}
	haveAll := true
	for _, w := range fiveWs {
		if _, ok := ctxVals[w]; !ok {
			haveAll = false
			break
		}
	}

	if haveAll {
		lede := composeFiveWs(nil, ctxVals)
		var extras []string
		for _, key := range order {
			if isFiveW(key) {
				continue
			}
			if v := ctxVals[key]; v != "" {
				extras = append(extras, v)
			}
		}
		if len(extras) > 0 {
			return lede + "\n\n" + strings.Join(extras, "\n\n")
		}
		return lede
	}

	var parts []string
	for _, key := range order {
		if v := ctxVals[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n\n")
}

func isFiveW(key string) bool {
	switch key {
	case "who", "what", "when", "where", "why":
		return true
	}
	return false
}

// composeInstanceData ignores bound elements entirely. Fields ending in
// "_text" trigger quote formatting with speaker/title attribution.
func composeInstanceData(section *types.Section, instanceData map[string]string) string {
	if section == nil || len(section.InstanceFields) == 0 {
		return ""
	}

	for _, field := range section.InstanceFields {
		if !strings.HasSuffix(field, "_text") {
			continue
		}
		text := instanceData[field]
		if text == "" {
			return ""
		}
		base := strings.TrimSuffix(field, "_text")
		speaker := instanceData[base+"_speaker"]
		title := instanceData[base+"_title"]
		return formatQuote(text, speaker, title)
	}

	var parts []string
	for _, field := range section.InstanceFields {
		if v := instanceData[field]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

func formatQuote(text, speaker, title string) string {
	quoted := `"` + text + `"`
	switch {
	case speaker != "" && title != "":
		return fmt.Sprintf("%s\n\n— %s, %s", quoted, speaker, title)
	case speaker != "":
		return fmt.Sprintf("%s\n\n— %s", quoted, speaker)
	default:
		return quoted
	}
}

// composeStructuredList splits element content into items and renders them in
// the requested list format.
func composeStructuredList(section *types.Section, binding *types.SectionBinding, elements []*types.Element) string {
	var points []string
	for _, el := range elements {
		if el == nil {
			continue
		}
		for _, para := range strings.Split(el.Content, "\n\n") {
			para = strings.TrimSpace(reListItem.ReplaceAllString(para, ""))
			if len(para) > 10 {
				points = append(points, para)
			}
		}
	}

	limit := 0
	if binding != nil && binding.BindingRules != nil && binding.BindingRules.Quantity > 0 {
		limit = binding.BindingRules.Quantity
	}
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}

	format := "bullets"
	if section != nil && section.Format != "" {
		format = section.Format
	}
	switch format {
	case "numbered":
		for i := range points {
			points[i] = fmt.Sprintf("%d. %s", i+1, points[i])
		}
		return strings.Join(points, "\n")
	case "paragraph":
		return strings.Join(points, "\n\n")
	default:
		for i := range points {
			points[i] = "- " + points[i]
		}
		return strings.Join(points, "\n")
	}
}

var reBoldHeadline = regexp.MustCompile(`(?i)\*\*Headline\*\*:\s*(.+?)(?:\n|$)`)
var reBoldMarkers = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// composeKeyMessage extracts a headline-sized key message: the markdown
// "**Headline**:" line if present, else the first sentence, capped at the
// section's word budget.
func composeKeyMessage(section *types.Section, elements []*types.Element) string {
	if len(elements) == 0 || elements[0] == nil {
		return ""
	}
	content := elements[0].Content

	var headline string
	if m := reBoldHeadline.FindStringSubmatch(content); m != nil {
		headline = strings.TrimSpace(m[1])
	} else {
		sentences := regexp.MustCompile(`\.\s+|\n\n`).Split(content, 2)
		headline = strings.TrimSpace(sentences[0])
		headline = reBoldMarkers.ReplaceAllString(headline, "$1")
	}

	maxWords := 10
	if section != nil && section.MaxWords > 0 {
		maxWords = section.MaxWords
	}
	return truncateWords(headline, maxWords)
}

// composeQuote prefers quoteN_text / quoteN_speaker / quoteN_title instance
// fields; falls back to the bound element's content.
func composeQuote(section *types.Section, elements []*types.Element, instanceData map[string]string) string {
	num := 1
	if section != nil && section.QuoteNumber > 0 {
		num = section.QuoteNumber
	}
	prefix := fmt.Sprintf("quote%d", num)

	text := instanceData[prefix+"_text"]
	if text == "" {
		if len(elements) > 0 && elements[0] != nil {
			text = strings.TrimSpace(strings.ReplaceAll(elements[0].Content, "{quote}", ""))
		}
	}
	if text == "" {
		return ""
	}
	return formatQuote(text, instanceData[prefix+"_speaker"], instanceData[prefix+"_title"])
}
