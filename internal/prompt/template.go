package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{(\w+)\}`)

// TemplateError reports placeholders the caller's context did not supply.
type TemplateError struct {
	Missing []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Missing, ", "))
}

// Render replaces {variable} placeholders in the template with values
// from vars. Every placeholder must be supplied; extra keys in vars are
// ignored.
func Render(template string, vars map[string]string) (string, error) {
	if missing := findMissingVars(template, vars); len(missing) > 0 {
		return "", &TemplateError{Missing: missing}
	}

	result := variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1] // strip { and }
		return vars[key]
	})

	return result, nil
}

// ExtractVariables returns the distinct variable names found in the template.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}

func findMissingVars(template string, vars map[string]string) []string {
	required := ExtractVariables(template)
	var missing []string
	for _, v := range required {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
