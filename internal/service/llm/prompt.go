package llm

import (
	"fmt"
	"os"
	"strings"
)

// RulesSection is the README section sent as the system prompt.
const RulesSection = "The rules of BaLLMatro"

// MarkdownSections maps every "## " heading to the trimmed lines below it,
// up to the next "## " heading. Text before the first heading is dropped.
func MarkdownSections(markdown string) map[string]string {
	sections := make(map[string]string)
	var title string
	var content []string
	inSection := false
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "## ") {
			if inSection {
				sections[title] = strings.Join(content, "\n")
			}
			title, content, inSection = line[3:], nil, true
			continue
		}
		if inSection {
			content = append(content, line)
		}
	}
	if inSection {
		sections[title] = strings.Join(content, "\n")
	}
	return sections
}

// SystemPrompt reads the rules section out of the markdown file at path.
func SystemPrompt(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	rules, ok := MarkdownSections(string(raw))[RulesSection]
	if !ok {
		return "", fmt.Errorf("%s does not contain the %q section", path, RulesSection)
	}
	return rules, nil
}
