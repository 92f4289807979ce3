// Package contactguard blocks or redacts off-platform contact details
// (phones, emails, street addresses) in user-supplied offer text.
package contactguard

import "regexp"

type Mode string

const (
	ModeBlock  Mode = "block"
	ModeRedact Mode = "redact"
	ModeIgnore Mode = "ignore"
)

const (
	CodeContactBlocked = "CONTACT_BLOCKED"
	defaultMessage     = "Contact information is not allowed in offers"
	placeholder        = "[removed]"
)

type Policy struct {
	Mode    Mode
	Message string
}

type Input struct {
	Title       string
	Description *string
}

type Finding struct {
	Field string `json:"field"`
	Kind  string `json:"kind"`
	Match string `json:"match"`
	Start int    `json:"start"`
}

type Result struct {
	OK          bool      `json:"ok"`
	Code        string    `json:"code,omitempty"`
	Message     string    `json:"message,omitempty"`
	Findings    []Finding `json:"findings,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Redacted    bool      `json:"redacted"`
}

var patterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{"phone", regexp.MustCompile(`\+?\d(?:[\s().-]?\d){7,14}`)},
	{"address", regexp.MustCompile(`(?i)\b(?:calle|avenida|av\.|colonia|col\.|c\.?p\.?\s*\d{5})\s*\S*`)},
	{"address", regexp.MustCompile(`#\s?\d{1,5}\b`)},
}

// ValidateOfferFields scans title and description for contact-like text and
// applies the configured policy. It is a pure function: no environment reads,
// no side effects.
func ValidateOfferFields(policy Policy, input Input) Result {
	findings := scanField("title", input.Title)
	if input.Description != nil {
		findings = append(findings, scanField("description", *input.Description)...)
	}

	if len(findings) == 0 || policy.Mode == ModeIgnore {
		return Result{OK: true, Title: input.Title, Description: input.Description}
	}

	switch policy.Mode {
	case ModeRedact:
		result := Result{
			OK:       true,
			Findings: findings,
			Title:    redact(input.Title),
			Redacted: true,
		}
		if input.Description != nil {
			redacted := redact(*input.Description)
			result.Description = &redacted
		}
		return result
	default:
		message := policy.Message
		if message == "" {
			message = defaultMessage
		}
		return Result{
			OK:          false,
			Code:        CodeContactBlocked,
			Message:     message,
			Findings:    findings,
			Title:       input.Title,
			Description: input.Description,
		}
	}
}

func scanField(field string, text string) []Finding {
	var findings []Finding
	for _, pattern := range patterns {
		for _, loc := range pattern.re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Field: field,
				Kind:  pattern.kind,
				Match: text[loc[0]:loc[1]],
				Start: loc[0],
			})
		}
	}
	return findings
}

func redact(text string) string {
	for _, pattern := range patterns {
		text = pattern.re.ReplaceAllString(text, placeholder)
	}
	return text
}
