// Package blueprint turns a master assistant configuration into the create
// payload for a tenant-specific copy.
//
// A blueprint is fetched from the voice platform as a JSON object. Build
// keeps only the top-level fields in the builder's allow-list, replaces
// {{token}} placeholders in every string value (recursively, through nested
// objects and arrays), and sets the assistant name from NamePattern. The
// template is never mutated.
package blueprint

import (
	"errors"
	"sort"
	"strings"
)

// Assistant is a voice-platform assistant configuration in its JSON form.
type Assistant = map[string]any

// Substitution keys understood by the default name pattern.
const (
	VarBusinessName = "business_name"
	VarPersonaName  = "persona_name"
)

// DefaultFields are the assistant fields a tenant copy may carry. Server
// managed fields (id, orgId, createdAt, updatedAt, isServerUrlSecretSet) are
// absent, so they never reach the create call.
var DefaultFields = []string{
	"analysisPlan",
	"artifactPlan",
	"backgroundDenoisingEnabled",
	"backgroundSound",
	"clientMessages",
	"compliancePlan",
	"credentialIds",
	"endCallMessage",
	"endCallPhrases",
	"firstMessage",
	"firstMessageInterruptionsEnabled",
	"firstMessageMode",
	"hooks",
	"keypadInputPlan",
	"maxDurationSeconds",
	"messagePlan",
	"metadata",
	"model",
	"modelOutputInMessagesEnabled",
	"monitorPlan",
	"name",
	"server",
	"serverMessages",
	"silenceTimeoutSeconds",
	"startSpeakingPlan",
	"stopSpeakingPlan",
	"transcriber",
	"voice",
	"voicemailDetection",
	"voicemailMessage",
}

// DefaultNamePattern names a copy after its persona and tenant, e.g. "Rab (Davie's Plumbing)".
const DefaultNamePattern = "{{persona_name}} ({{business_name}})"

// ErrEmptyTemplate is returned when Build is given no template fields.
var ErrEmptyTemplate = errors.New("blueprint template is empty")

// Builder produces tenant assistant payloads from a blueprint.
type Builder struct {
	allowed     map[string]struct{}
	namePattern string
}

// NewBuilder returns a builder that keeps fields (DefaultFields when empty)
// and names copies with namePattern (DefaultNamePattern when empty).
func NewBuilder(fields []string, namePattern string) *Builder {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	if namePattern == "" {
		namePattern = DefaultNamePattern
	}
	b := &Builder{allowed: make(map[string]struct{}, len(fields)), namePattern: namePattern}
	for _, f := range fields {
		b.allowed[f] = struct{}{}
	}
	return b
}

// Build returns a new payload derived from template. vars maps token names
// to their replacement, so {{business_name}} becomes vars["business_name"].
// Tokens with no entry in vars are left as written.
//
// The second return value lists the template fields that were dropped,
// sorted, for logging.
func (b *Builder) Build(template Assistant, vars map[string]string) (Assistant, []string, error) {
	if len(template) == 0 {
		return nil, nil, ErrEmptyTemplate
	}
	r := replacer(vars)

	out := make(Assistant, len(template))
	var dropped []string
	for k, v := range template {
		if _, ok := b.allowed[k]; !ok {
			dropped = append(dropped, k)
			continue
		}
		out[k] = substitute(v, r)
	}
	if _, ok := b.allowed["name"]; ok {
		out["name"] = r.Replace(b.namePattern)
	}
	sort.Strings(dropped)
	return out, dropped, nil
}

// Allowed reports whether field survives Build.
func (b *Builder) Allowed(field string) bool {
	_, ok := b.allowed[field]
	return ok
}

func replacer(vars map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...)
}

// substitute deep-copies v, applying r to every string.
func substitute(v any, r *strings.Replacer) any {
	switch t := v.(type) {
	case string:
		return r.Replace(t)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = substitute(vv, r)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = substitute(vv, r)
		}
		return s
	default:
		return v
	}
}
