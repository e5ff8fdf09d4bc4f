package leads

import (
	"sort"
	"strings"
)

// Match scores leads against a free-text query and returns the matches in
// descending score order. Name matches dominate, with a bonus for prefix
// matches; company and email contribute smaller weights. Ties keep their
// original relative order.
func Match(query string, all []*Lead) []*Lead {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(all) == 0 {
		return nil
	}

	type scored struct {
		lead  *Lead
		score int
	}

	var matches []scored
	for _, lead := range all {
		score := 0

		name := strings.ToLower(lead.Name)
		if name != "" && strings.Contains(name, query) {
			score += 70
			if strings.HasPrefix(name, query) {
				score += 20
			}
		}
		if lead.Company != "" && strings.Contains(strings.ToLower(lead.Company), query) {
			score += 20
		}
		if lead.Email != "" && strings.Contains(strings.ToLower(lead.Email), query) {
			score += 10
		}

		if score > 0 {
			matches = append(matches, scored{lead: lead, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]*Lead, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.lead)
	}
	return out
}
