package taxonomy

import (
	"sort"
	"testing"

	"subline/internal/domain"
)

func TestIsValidCategory(t *testing.T) {
	if !IsValidCategory("cs.AI") {
		t.Error("cs.AI should be valid")
	}
	if IsValidCategory("cs.XX") {
		t.Error("cs.XX should not be valid")
	}
	if IsValidCategory("") {
		t.Error("empty code should not be valid")
	}
}

func TestGet(t *testing.T) {
	c, ok := Get("hep-th")
	if !ok || c.Archive != "hep-th" || c.Name == "" {
		t.Errorf("got %+v ok=%v", c, ok)
	}
	if _, ok := Get("nope"); ok {
		t.Error("unknown code found")
	}
}

func TestCodesSortedAndComplete(t *testing.T) {
	codes := Codes()
	if !sort.StringsAreSorted(codes) {
		t.Error("codes not sorted")
	}
	for _, code := range codes {
		if !IsValidCategory(code) {
			t.Errorf("listed code %s not valid", code)
		}
	}
}

func TestEndorsedCategories(t *testing.T) {
	u := domain.Agent{
		Type:         domain.AgentUser,
		NativeID:     "u1",
		Endorsements: []string{"stat.ML", "cs.AI", "not.real"},
	}
	got := EndorsedCategories(u)
	if len(got) != 2 || got[0] != "cs.AI" || got[1] != "stat.ML" {
		t.Errorf("endorsed = %v", got)
	}

	sys := domain.SystemAgent("subline.rules")
	if len(EndorsedCategories(sys)) != len(Codes()) {
		t.Error("system agent should be endorsed for the whole taxonomy")
	}
}

func TestIsEndorsed(t *testing.T) {
	u := domain.Agent{Type: domain.AgentUser, NativeID: "u1", Endorsements: []string{"cs.AI"}}
	if !IsEndorsed(u, "cs.AI") {
		t.Error("endorsement not recognized")
	}
	if IsEndorsed(u, "math.CO") {
		t.Error("unendorsed category accepted")
	}
	if !IsEndorsed(domain.SystemAgent(""), "math.CO") {
		t.Error("system agent should be endorsed everywhere")
	}
}
