// In file: internal/render/markdown.go

// Package render turns materialized run results into Markdown text suitable
// for a calling agent. Research and Notion flows get purpose-built layouts;
// everything else falls back to a per-path section dump.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"wordware-gateway/internal/wordware"
)

// Result formats one materialized result for a tool. The priority order is
// fixed: errors verbatim, then the explicit completion payload, then the
// full output mapping.
func Result(toolName string, res *wordware.Result) string {
	if res.Failed() {
		return "❌ Error: " + res.Error
	}
	if answer, ok := res.Answer(); ok {
		return answer
	}
	output := res.Output
	if hasKeyWithPrefix(output, "research") {
		return researchResult(output)
	}
	if hasKeyWithPrefix(output, "notion") || hasKeyWithPrefix(output, "save") {
		return notionResult(output)
	}
	return genericResult(toolName, output)
}

func hasKeyWithPrefix(output map[string]any, prefix string) bool {
	for key := range output {
		if strings.HasPrefix(strings.ToLower(key), prefix) {
			return true
		}
	}
	return false
}

// researchSections maps key fragments to their section titles, in render
// order.
var researchSections = []struct {
	fragment string
	title    string
}{
	{"person", "## Person Information"},
	{"company", "## Company Information"},
	{"competition", "## Competitor Analysis"},
	{"questions", "## Interview Questions"},
	{"summary", "## Summary"},
}

func researchResult(output map[string]any) string {
	var b strings.Builder
	b.WriteString("# Research Results\n\n")

	rendered := make(map[string]bool)
	for _, section := range researchSections {
		keys := keysContaining(output, section.fragment)
		if len(keys) == 0 {
			continue
		}
		b.WriteString(section.title + "\n\n")
		for _, key := range keys {
			writeContent(&b, output[key])
			rendered[key] = true
		}
	}

	var otherKeys []string
	for key := range output {
		if !rendered[key] && key != wordware.CompletionOutputPath {
			otherKeys = append(otherKeys, key)
		}
	}
	if len(otherKeys) > 0 {
		sort.Strings(otherKeys)
		b.WriteString("## Additional Information\n\n")
		for _, key := range otherKeys {
			fmt.Fprintf(&b, "### %s\n\n", key)
			writeContent(&b, output[key])
		}
	}
	return b.String()
}

func notionResult(output map[string]any) string {
	var b strings.Builder
	b.WriteString("# Notion Save Result\n\n")

	urlKeys := keysContaining(output, "url")
	for _, key := range urlKeys {
		if url, ok := output[key].(string); ok && strings.HasPrefix(url, "http") {
			fmt.Fprintf(&b, "✅ Page successfully created: %s\n\n", url)
		}
	}
	if len(urlKeys) == 0 {
		b.WriteString("Operation completed. Details:\n\n")
		for _, key := range sortedKeys(output) {
			if key == wordware.CompletionOutputPath {
				continue
			}
			if s, ok := output[key].(string); ok {
				fmt.Fprintf(&b, "- **%s**: %s\n", key, s)
			} else {
				fmt.Fprintf(&b, "- **%s**: %s\n", key, jsonInline(output[key]))
			}
		}
	}
	return b.String()
}

func genericResult(toolName string, output map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Results for %s\n\n", toolName)
	for _, key := range sortedKeys(output) {
		if key == wordware.CompletionOutputPath {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", key)
		writeContent(&b, output[key])
	}
	return b.String()
}

// writeContent appends one output value: strings as-is, structured data as a
// fenced JSON block.
func writeContent(b *strings.Builder, content any) {
	if s, ok := content.(string); ok {
		b.WriteString(s + "\n\n")
		return
	}
	encoded, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		b.WriteString("[Content cannot be displayed]\n\n")
		return
	}
	fmt.Fprintf(b, "```json\n%s\n```\n\n", encoded)
}

func jsonInline(content any) string {
	encoded, err := json.Marshal(content)
	if err != nil {
		return "[Complex data]"
	}
	return string(encoded)
}

func keysContaining(output map[string]any, fragment string) []string {
	var keys []string
	for key := range output {
		if strings.Contains(strings.ToLower(key), fragment) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(output map[string]any) []string {
	keys := make([]string, 0, len(output))
	for key := range output {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
