package services

import (
	"regexp"
	"strings"
)

var reListItem = regexp.MustCompile(`(?m)^\s*(?:[-•*]|\d+[.)])\s+`)

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// countListItems counts bullet or numbered lines; zero for prose.
func countListItems(s string) int {
	return len(reListItem.FindAllString(s, -1))
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if max <= 0 || len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

// injectInstanceData replaces {field} placeholders with instance values.
func injectInstanceData(s string, instanceData map[string]string) string {
	if len(instanceData) == 0 || !strings.Contains(s, "{") {
		return s
	}
	for field, value := range instanceData {
		s = strings.ReplaceAll(s, "{"+field+"}", value)
	}
	return s
}
