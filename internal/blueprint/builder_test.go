package blueprint

import (
	"reflect"
	"testing"
)

func sampleTemplate() Assistant {
	return Assistant{
		"id":                   "bp-1",
		"orgId":                "org-1",
		"createdAt":            "2024-01-01T00:00:00Z",
		"updatedAt":            "2024-01-02T00:00:00Z",
		"isServerUrlSecretSet": true,
		"name":                 "Rab (master)",
		"firstMessage":         "Hello, you've reached {{business_name}}.",
		"maxDurationSeconds":   float64(600),
		"model": map[string]any{
			"provider": "openai",
			"messages": []any{
				map[string]any{"role": "system", "content": "You answer calls for {{business_name}}. Unknown: {{other}}"},
			},
		},
		"voice": map[string]any{"provider": "11labs", "voiceId": "rab"},
	}
}

func TestBuild_StripsServerFieldsAndSubstitutes(t *testing.T) {
	b := NewBuilder(nil, "")
	tpl := sampleTemplate()

	out, dropped, err := b.Build(tpl, map[string]string{
		VarBusinessName: "Davie's Plumbing",
		VarPersonaName:  "Rab",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantDropped := []string{"createdAt", "id", "isServerUrlSecretSet", "orgId", "updatedAt"}
	if !reflect.DeepEqual(dropped, wantDropped) {
		t.Fatalf("dropped = %v; want %v", dropped, wantDropped)
	}
	for _, f := range wantDropped {
		if _, ok := out[f]; ok {
			t.Fatalf("field %q should not be in payload", f)
		}
	}

	if out["name"] != "Rab (Davie's Plumbing)" {
		t.Fatalf("name = %v", out["name"])
	}
	if out["firstMessage"] != "Hello, you've reached Davie's Plumbing." {
		t.Fatalf("firstMessage = %v", out["firstMessage"])
	}
	msgs := out["model"].(map[string]any)["messages"].([]any)
	content := msgs[0].(map[string]any)["content"]
	if content != "You answer calls for Davie's Plumbing. Unknown: {{other}}" {
		t.Fatalf("nested content = %v", content)
	}
	if out["maxDurationSeconds"] != float64(600) {
		t.Fatalf("non-string values must pass through: %v", out["maxDurationSeconds"])
	}
}

func TestBuild_DoesNotMutateTemplate(t *testing.T) {
	b := NewBuilder(nil, "")
	tpl := sampleTemplate()
	before := sampleTemplate()

	if _, _, err := b.Build(tpl, map[string]string{VarBusinessName: "X", VarPersonaName: "Y"}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(tpl, before) {
		t.Fatalf("template was mutated")
	}
}

func TestBuild_CustomAllowListAndPattern(t *testing.T) {
	b := NewBuilder([]string{"voice"}, "{{business_name}}")
	out, dropped, err := b.Build(sampleTemplate(), map[string]string{VarBusinessName: "Acme"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) != 1 || out["voice"] == nil {
		t.Fatalf("only voice should survive, got %v", out)
	}
	if _, ok := out["name"]; ok {
		t.Fatalf("name is not allowed, must not be set")
	}
	if len(dropped) != len(sampleTemplate())-1 {
		t.Fatalf("dropped = %v", dropped)
	}
	if !b.Allowed("voice") || b.Allowed("model") {
		t.Fatalf("Allowed() mismatch")
	}
}

func TestBuild_EmptyTemplate(t *testing.T) {
	if _, _, err := NewBuilder(nil, "").Build(nil, nil); err != ErrEmptyTemplate {
		t.Fatalf("want ErrEmptyTemplate, got %v", err)
	}
}
