package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/storyos/storyos-backend/internal/apperr"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/types"
)

// ValidationInput bundles everything the validator inspects for one
// deliverable render.
type ValidationInput struct {
	Model        *types.StoryModel
	Template     *types.Template
	Rendered     map[string]string
	InstanceData map[string]string

	// BoundElements maps each section name to the names of the elements
	// bound to it, so require_element rules can be checked without
	// re-reading the store.
	BoundElements map[string][]string
}

// Validator runs story-model constraints and template rules against a
// composed deliverable and produces an ordered pass/fail log. With strict
// mode off (the default) failures are recorded but never block persistence;
// with strict mode on Gate converts failures into a rejected operation.
type Validator struct {
	log    *logger.Logger
	strict bool
}

func NewValidator(log *logger.Logger, strict bool) *Validator {
	return &Validator{log: log.With("service", "validator"), strict: strict}
}

func (v *Validator) Strict() bool { return v.strict }

// Validate evaluates rules in a fixed order: required instance fields, then
// required sections, then story-model constraints, then template rules, each
// set in declared order.
func (v *Validator) Validate(in ValidationInput) []types.ValidationLogEntry {
	var entries []types.ValidationLogEntry

	if in.Template != nil {
		for _, f := range in.Template.InstanceFields {
			if !f.Required {
				continue
			}
			ok := strings.TrimSpace(in.InstanceData[f.Name]) != ""
			entries = append(entries, entry("require_instance_field:"+f.Name, ok,
				fmt.Sprintf("instance field %q is required", f.Name)))
		}
	}

	if in.Model != nil {
		for _, s := range in.Model.Sections {
			if !s.Required {
				continue
			}
			ok := strings.TrimSpace(in.Rendered[s.Name]) != ""
			entries = append(entries, entry("require_section:"+s.Name, ok,
				fmt.Sprintf("required section %q has no content", s.Name)))
		}
		for _, c := range in.Model.Constraints {
			entries = append(entries, v.checkConstraint(c, in))
		}
	}

	if in.Template != nil {
		for _, r := range in.Template.ValidationRules {
			entries = append(entries, v.checkRule(r, in))
		}
	}

	for _, e := range entries {
		if !e.Passed {
			v.log.Warn("validation rule failed", "rule", e.Rule, "message", e.Message)
		}
	}
	return entries
}

// Gate returns a ValidationFailedError when strict mode is on and the log
// contains failures. Callers persist the log either way.
func (v *Validator) Gate(entries []types.ValidationLogEntry) error {
	if !v.strict {
		return nil
	}
	var failures []string
	for _, e := range entries {
		if !e.Passed {
			failures = append(failures, e.Rule+": "+e.Message)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &apperr.ValidationFailedError{Failures: failures}
}

func (v *Validator) checkConstraint(c types.SectionConstraint, in ValidationInput) types.ValidationLogEntry {
	text := in.Rendered[c.SectionName]
	rule := c.ConstraintType + ":" + c.SectionName

	switch c.ConstraintType {
	case "max_words":
		n := wordCount(text)
		return entry(rule, n <= c.MaxWords,
			fmt.Sprintf("section %q has %d words, limit %d", c.SectionName, n, c.MaxWords))
	case "requires_element":
		return entry(rule, containsName(in.BoundElements[c.SectionName], c.ElementName),
			fmt.Sprintf("section %q must be bound to element %q", c.SectionName, c.ElementName))
	case "requires_fields":
		missing := missingFields(c.Fields, in.InstanceData)
		return entry(rule, len(missing) == 0,
			fmt.Sprintf("section %q missing instance fields: %s", c.SectionName, strings.Join(missing, ", ")))
	default:
		return entry(rule, true, fmt.Sprintf("unknown constraint type %q skipped", c.ConstraintType))
	}
}

func (v *Validator) checkRule(r types.TemplateRule, in ValidationInput) types.ValidationLogEntry {
	text := in.Rendered[r.SectionName]
	rule := r.RuleType
	if r.SectionName != "" {
		rule += ":" + r.SectionName
	}

	var e types.ValidationLogEntry
	switch r.RuleType {
	case "max_word_count":
		n := wordCount(text)
		e = entry(rule, n <= r.MaxWordCount,
			fmt.Sprintf("section %q has %d words, limit %d", r.SectionName, n, r.MaxWordCount))
	case "require_element":
		e = entry(rule, containsName(in.BoundElements[r.SectionName], r.ElementName),
			fmt.Sprintf("section %q must be bound to element %q", r.SectionName, r.ElementName))
	case "require_fields":
		missing := missingFields(r.Fields, in.InstanceData)
		e = entry(rule, len(missing) == 0,
			fmt.Sprintf("missing instance fields: %s", strings.Join(missing, ", ")))
	case "require_attribution":
		e = entry(rule, hasAttribution(text),
			fmt.Sprintf("section %q must carry a speaker attribution", r.SectionName))
	case "min_items":
		n := countListItems(text)
		e = entry(rule, n >= r.MinItems,
			fmt.Sprintf("section %q has %d items, minimum %d", r.SectionName, n, r.MinItems))
	case "require_pattern":
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			v.log.Warn("invalid validation pattern", "rule", rule, "pattern", r.Pattern, "error", err)
			e = entry(rule, false, fmt.Sprintf("invalid pattern %q: %v", r.Pattern, err))
			break
		}
		e = entry(rule, re.MatchString(text),
			fmt.Sprintf("section %q does not match pattern %q", r.SectionName, r.Pattern))
	case "non_empty":
		e = entry(rule, strings.TrimSpace(text) != "",
			fmt.Sprintf("section %q is empty", r.SectionName))
	default:
		e = entry(rule, true, fmt.Sprintf("unknown rule type %q skipped", r.RuleType))
	}

	if !e.Passed && r.ErrorMessage != "" {
		e.Message = r.ErrorMessage
	}
	return e
}

func entry(rule string, passed bool, failMsg string) types.ValidationLogEntry {
	e := types.ValidationLogEntry{
		Timestamp: time.Now().UTC(),
		Rule:      rule,
		Passed:    passed,
	}
	if !passed {
		e.Message = failMsg
	}
	return e
}

// hasAttribution reports whether text contains an em-dash attribution line of
// the form produced by the quote formatter ("— Speaker, Title").
func hasAttribution(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "—") && len(strings.TrimSpace(strings.TrimPrefix(line, "—"))) > 0 {
			return true
		}
	}
	return false
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return true
		}
	}
	return false
}

func missingFields(fields []string, data map[string]string) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(data[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
