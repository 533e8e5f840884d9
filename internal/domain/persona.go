// Package domain – personas
//
// Persona catalog offered during onboarding.
package domain

import (
	"sort"
	"strings"
)

// Persona is a selectable receptionist character. Personas with a
// BlueprintID are cloned from that assistant on the voice platform; the rest
// are answered by the master assistant until a blueprint is configured.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	BlueprintID string `json:"blueprint_id"`
}

// builtinPersonas are the characters offered during onboarding.
var builtinPersonas = []Persona{
	{ID: "tradie", Name: "Rab", Label: "The Tradie"},
	{ID: "pro", Name: "Claire", Label: "The Professional"},
	{ID: "coach", Name: "Calum", Label: "The Coach"},
}

// PersonaCatalog resolves persona ids to personas with their blueprint ids.
// The zero value is empty; use NewPersonaCatalog.
type PersonaCatalog struct {
	byID      map[string]Persona
	defaultID string
}

// NewPersonaCatalog builds a catalog of the built-in personas plus any extra
// ids in blueprints. Built-ins without a configured blueprint stay selectable
// with an empty BlueprintID. Unknown ids are added with their id as name and
// label.
func NewPersonaCatalog(blueprints map[string]string, defaultID string) PersonaCatalog {
	c := PersonaCatalog{
		byID:      make(map[string]Persona, len(builtinPersonas)+len(blueprints)),
		defaultID: strings.ToLower(strings.TrimSpace(defaultID)),
	}
	for _, p := range builtinPersonas {
		c.byID[p.ID] = p
	}
	for id, bp := range blueprints {
		id = strings.ToLower(strings.TrimSpace(id))
		p, ok := c.byID[id]
		if !ok {
			p = Persona{ID: id, Name: id, Label: id}
		}
		p.BlueprintID = bp
		c.byID[id] = p
	}
	return c
}

// Lookup returns the persona for id. An empty id selects the default persona.
func (c PersonaCatalog) Lookup(id string) (Persona, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = c.defaultID
	}
	p, ok := c.byID[id]
	return p, ok
}

// Default returns the default persona.
func (c PersonaCatalog) Default() (Persona, bool) { return c.Lookup("") }

// All returns the catalog's personas ordered by id.
func (c PersonaCatalog) All() []Persona {
	out := make([]Persona, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
