package domain

import "testing"

func TestPersonaCatalog_LookupAndDefault(t *testing.T) {
	c := NewPersonaCatalog(map[string]string{"tradie": "bp-t", "PRO": "bp-p", "night": "bp-n"}, "Tradie")

	p, ok := c.Lookup("pro")
	if !ok || p.Name != "Claire" || p.Label != "The Professional" || p.BlueprintID != "bp-p" {
		t.Fatalf("pro persona unexpected: %+v ok=%v", p, ok)
	}
	coach, ok := c.Lookup("coach")
	if !ok || coach.Name != "Calum" || coach.BlueprintID != "" {
		t.Fatalf("coach should be selectable without a blueprint: %+v ok=%v", coach, ok)
	}
	d, ok := c.Default()
	if !ok || d.ID != "tradie" || d.Name != "Rab" {
		t.Fatalf("default persona unexpected: %+v", d)
	}
	if p, _ := c.Lookup("  "); p.ID != "tradie" {
		t.Fatalf("blank id should resolve to default, got %+v", p)
	}
	n, ok := c.Lookup("NIGHT")
	if !ok || n.Name != "night" || n.BlueprintID != "bp-n" {
		t.Fatalf("custom persona unexpected: %+v", n)
	}
}

func TestPersonaCatalog_AllSorted(t *testing.T) {
	c := NewPersonaCatalog(map[string]string{"tradie": "a", "coach": "b", "pro": "c"}, "tradie")
	all := c.All()
	if len(all) != 3 || all[0].ID != "coach" || all[1].ID != "pro" || all[2].ID != "tradie" {
		t.Fatalf("All() order unexpected: %+v", all)
	}
	var empty PersonaCatalog
	if _, ok := empty.Lookup("tradie"); ok {
		t.Fatalf("zero catalog should be empty")
	}
}

func TestPersonaCatalog_BuiltinsWithoutBlueprints(t *testing.T) {
	c := NewPersonaCatalog(map[string]string{"tradie": "bp-t"}, "tradie")
	for _, id := range []string{"tradie", "pro", "coach"} {
		if _, ok := c.Lookup(id); !ok {
			t.Fatalf("built-in persona %s missing", id)
		}
	}
	if p, _ := c.Lookup("pro"); p.BlueprintID != "" {
		t.Fatalf("pro should have no blueprint: %+v", p)
	}
	if _, ok := c.Lookup("robot"); ok {
		t.Fatalf("unknown persona resolved")
	}
	if n := len(c.All()); n != 3 {
		t.Fatalf("All() = %d personas; want 3", n)
	}
}
