package notion

import (
	"encoding/json"
	"strings"
)

// Schema property builders, used when creating a database.

func TitleSpec() map[string]any {
	return map[string]any{"title": map[string]any{}}
}

func RichTextSpec() map[string]any {
	return map[string]any{"rich_text": map[string]any{}}
}

func NumberSpec() map[string]any {
	return map[string]any{"number": map[string]any{"format": "number"}}
}

func DateSpec() map[string]any {
	return map[string]any{"date": map[string]any{}}
}

func URLSpec() map[string]any {
	return map[string]any{"url": map[string]any{}}
}

// SelectSpec declares a select property with a fixed option set.
func SelectSpec(options ...string) map[string]any {
	opts := make([]map[string]any, 0, len(options))
	for _, name := range options {
		opts = append(opts, map[string]any{"name": name})
	}
	return map[string]any{"select": map[string]any{"options": opts}}
}

func MultiSelectSpec(options ...string) map[string]any {
	opts := make([]map[string]any, 0, len(options))
	for _, name := range options {
		opts = append(opts, map[string]any{"name": name})
	}
	return map[string]any{"multi_select": map[string]any{"options": opts}}
}

// Value builders, used when creating a page.

func TitleValue(text string) map[string]any {
	return map[string]any{"title": []map[string]any{richText(text)}}
}

func RichTextValue(text string) map[string]any {
	return map[string]any{"rich_text": []map[string]any{richText(text)}}
}

func SelectValue(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func MultiSelectValue(names []string) map[string]any {
	opts := make([]map[string]any, 0, len(names))
	for _, name := range names {
		opts = append(opts, map[string]any{"name": name})
	}
	return map[string]any{"multi_select": opts}
}

func NumberValue(n float64) map[string]any {
	return map[string]any{"number": n}
}

func DateValue(iso string) map[string]any {
	return map[string]any{"date": map[string]any{"start": iso}}
}

func URLValue(u string) map[string]any {
	return map[string]any{"url": u}
}

func richText(text string) map[string]any {
	// Notion rejects rich text segments over 2000 characters.
	runes := []rune(text)
	if len(runes) > 2000 {
		text = string(runes[:2000])
	}
	return map[string]any{"text": map[string]any{"content": text}}
}

// Filter builders for database queries.

// ContainsFilter matches rows whose property contains the value. The typ
// argument is the Notion property type ("rich_text", "title", "select").
func ContainsFilter(property, typ, value string) map[string]any {
	return map[string]any{
		"property": property,
		typ:        map[string]any{"contains": value},
	}
}

// OrFilter combines conditions so any single match qualifies a row.
func OrFilter(conditions ...map[string]any) map[string]any {
	return map[string]any{"or": conditions}
}

// Extraction helpers for query results.

type textSpan struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (s textSpan) value() string {
	if s.PlainText != "" {
		return s.PlainText
	}
	return s.Text.Content
}

// PlainText flattens a title or rich_text property into one string.
// Unknown or absent properties yield "".
func (p *Page) PlainText(property string) string {
	raw, ok := p.Properties[property]
	if !ok {
		return ""
	}
	var prop struct {
		Title    []textSpan `json:"title"`
		RichText []textSpan `json:"rich_text"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	spans := prop.Title
	if len(spans) == 0 {
		spans = prop.RichText
	}
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		parts = append(parts, s.value())
	}
	return strings.Join(parts, "")
}

// SelectName returns the chosen option name of a select property.
func (p *Page) SelectName(property string) string {
	raw, ok := p.Properties[property]
	if !ok {
		return ""
	}
	var prop struct {
		Select struct {
			Name string `json:"name"`
		} `json:"select"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	return prop.Select.Name
}

// URLOf returns the value of a url property.
func (p *Page) URLOf(property string) string {
	raw, ok := p.Properties[property]
	if !ok {
		return ""
	}
	var prop struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	return prop.URL
}
