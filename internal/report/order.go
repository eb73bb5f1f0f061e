package report

import "strings"

// Canonical section names accepted in module order lists.
const (
	SectionActivity  = "Activity"
	SectionTopics    = "Topics"
	SectionPortraits = "Portraits"
	SectionQuotes    = "Quotes"
	SectionRankings  = "Rankings"
	SectionSummary   = "Summary"
	SectionProfile   = "Profile"
)

var knownSections = map[string]string{
	"activity":  SectionActivity,
	"topics":    SectionTopics,
	"portraits": SectionPortraits,
	"quotes":    SectionQuotes,
	"rankings":  SectionRankings,
	"summary":   SectionSummary,
	"profile":   SectionProfile,
}

// ParseModuleOrder turns configured order entries into section groups. Each
// entry is either one section name or a comma-joined group rendered as one
// block, e.g. ["Activity", "Portraits,Rankings"]. Unknown names are dropped;
// duplicates keep their first position.
func ParseModuleOrder(entries []string) [][]string {
	groups := make([][]string, 0, len(entries))
	seen := make(map[string]bool)
	for _, entry := range entries {
		var group []string
		for _, part := range strings.Split(entry, ",") {
			name, ok := knownSections[strings.ToLower(strings.TrimSpace(part))]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			group = append(group, name)
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}
