// Package taxonomy provides the fixed category taxonomy against which
// classifications are validated, and endorsement lookups for agents.
package taxonomy

import (
	"sort"

	"subline/internal/domain"
)

// Category describes one entry in the taxonomy.
type Category struct {
	Code    string
	Name    string
	Archive string
}

// categories is the fixed taxonomy. Categories are never added or removed
// at runtime.
var categories = map[string]Category{
	"cs.AI":    {Code: "cs.AI", Name: "Artificial Intelligence", Archive: "cs"},
	"cs.CL":    {Code: "cs.CL", Name: "Computation and Language", Archive: "cs"},
	"cs.DL":    {Code: "cs.DL", Name: "Digital Libraries", Archive: "cs"},
	"cs.DS":    {Code: "cs.DS", Name: "Data Structures and Algorithms", Archive: "cs"},
	"cs.IR":    {Code: "cs.IR", Name: "Information Retrieval", Archive: "cs"},
	"cs.LG":    {Code: "cs.LG", Name: "Machine Learning", Archive: "cs"},
	"math.CO":  {Code: "math.CO", Name: "Combinatorics", Archive: "math"},
	"math.PR":  {Code: "math.PR", Name: "Probability", Archive: "math"},
	"math.ST":  {Code: "math.ST", Name: "Statistics Theory", Archive: "math"},
	"physics.optics": {
		Code: "physics.optics", Name: "Optics", Archive: "physics",
	},
	"hep-th":   {Code: "hep-th", Name: "High Energy Physics - Theory", Archive: "hep-th"},
	"quant-ph": {Code: "quant-ph", Name: "Quantum Physics", Archive: "quant-ph"},
	"stat.ML":  {Code: "stat.ML", Name: "Machine Learning", Archive: "stat"},
	"econ.EM":  {Code: "econ.EM", Name: "Econometrics", Archive: "econ"},
	"eess.SP":  {Code: "eess.SP", Name: "Signal Processing", Archive: "eess"},
	"q-bio.NC": {Code: "q-bio.NC", Name: "Neurons and Cognition", Archive: "q-bio"},
}

// IsValidCategory reports whether the code exists in the taxonomy.
func IsValidCategory(code string) bool {
	_, ok := categories[code]
	return ok
}

// Get returns the category for a code.
func Get(code string) (Category, bool) {
	c, ok := categories[code]
	return c, ok
}

// Codes lists all category codes in sorted order.
func Codes() []string {
	out := make([]string, 0, len(categories))
	for code := range categories {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// EndorsedCategories returns the taxonomy categories the agent is endorsed
// for. System agents are endorsed for the whole taxonomy.
func EndorsedCategories(agent domain.Agent) []string {
	if agent.Type == domain.AgentSystem {
		return Codes()
	}
	var out []string
	for _, code := range agent.Endorsements {
		if IsValidCategory(code) {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// IsEndorsed reports whether the agent may submit to the category.
func IsEndorsed(agent domain.Agent, code string) bool {
	if agent.Type == domain.AgentSystem {
		return true
	}
	for _, c := range agent.Endorsements {
		if c == code {
			return true
		}
	}
	return false
}
