package leads

import "testing"

func testLeads() []*Lead {
	return []*Lead{
		{ID: "1", Name: "Jane Doe", Company: "Acme", Email: "jane@acme.io"},
		{ID: "2", Name: "John Smith", Company: "Doe Industries", Email: "john@doeind.com"},
		{ID: "3", Name: "Doe Ray", Company: "Ray Co", Email: "ray@rayco.com"},
		{ID: "4", Name: "Alice Brown", Company: "Brown LLC", Email: "alice@brown.dev"},
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	if got := Match("", testLeads()); got != nil {
		t.Errorf("empty query should match nothing, got %d", len(got))
	}
	if got := Match("doe", nil); got != nil {
		t.Errorf("empty lead set should match nothing, got %d", len(got))
	}
}

func TestMatchPrefixOutranksSubstring(t *testing.T) {
	got := Match("doe", testLeads())
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	// "Doe Ray": name contains + prefix = 90. "Jane Doe": name contains = 70.
	// "John Smith": company only = 20.
	if got[0].ID != "3" {
		t.Errorf("expected prefix match first, got %s", got[0].Name)
	}
	if got[1].ID != "1" {
		t.Errorf("expected name-substring match second, got %s", got[1].Name)
	}
	if got[2].ID != "2" {
		t.Errorf("expected company match last, got %s", got[2].Name)
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	got := Match("ALICE", testLeads())
	if len(got) != 1 || got[0].ID != "4" {
		t.Fatalf("expected case-insensitive match on Alice, got %v", got)
	}
}

func TestMatchEmailWeight(t *testing.T) {
	got := Match("rayco", testLeads())
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected email match on lead 3, got %v", got)
	}
}

func TestMatchStableTies(t *testing.T) {
	all := []*Lead{
		{ID: "a", Company: "Globex"},
		{ID: "b", Company: "Globex Partners"},
	}
	got := Match("globex", all)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("ties must preserve original order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestMatchExcludesZeroScores(t *testing.T) {
	for _, lead := range Match("doe", testLeads()) {
		if lead.ID == "4" {
			t.Error("lead with zero score must not appear in results")
		}
	}
}
