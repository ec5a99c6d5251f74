// Package flags formats shared flag usage strings.
package flags

import (
	"strings"
)

const (
	choiceListOpenConstant      = "`<"
	choiceListCloseConstant     = ">`"
	choiceListSeparatorConstant = "|"
	usageSeparatorConstant      = " "
)

// FormatChoiceUsage renders a flag usage string listing every choice, with the
// default choice upper-cased. Duplicate choices (case insensitive) collapse to
// their first occurrence.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))

	seenChoices := make(map[string]bool, len(choices))
	var usageBuilder strings.Builder
	usageBuilder.WriteString(choiceListOpenConstant)
	renderedCount := 0
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 || seenChoices[normalizedChoice] {
			continue
		}
		seenChoices[normalizedChoice] = true

		if renderedCount > 0 {
			usageBuilder.WriteString(choiceListSeparatorConstant)
		}
		if normalizedChoice == normalizedDefault {
			usageBuilder.WriteString(strings.ToUpper(trimmedChoice))
		} else {
			usageBuilder.WriteString(trimmedChoice)
		}
		renderedCount++
	}
	usageBuilder.WriteString(choiceListCloseConstant)

	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return usageBuilder.String()
	}
	return usageBuilder.String() + usageSeparatorConstant + trimmedDescription
}
