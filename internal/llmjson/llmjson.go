// Package llmjson extracts JSON documents from language model replies, which
// often wrap the payload in markdown code fences.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

const fence = "```"

// StripFences returns the content of the first fenced block in text, preferring
// a ```json block. Text without fences is returned trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if _, after, found := strings.Cut(text, fence+"json"); found {
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body)
	}
	if _, after, found := strings.Cut(text, fence); found {
		// skip an info string such as ```JSON or ```javascript
		if nl := strings.IndexByte(after, '\n'); nl >= 0 && !strings.ContainsAny(after[:nl], "{[") {
			after = after[nl+1:]
		}
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body)
	}
	return text
}

// Decode strips fences from text and unmarshals the remainder into v.
func Decode(text string, v any) error {
	body := StripFences(text)
	if body == "" {
		return fmt.Errorf("empty model reply")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
