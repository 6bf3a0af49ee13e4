package pokemon

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName returns the title-cased name ("mr-mime" -> "Mr-Mime").
func DisplayName(name string) string {
	return titleCaser.String(name)
}

// Card renders the detail view of a Pokémon as Markdown.
func Card(p Pokemon) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", DisplayName(p.Name))
	if url := p.ArtworkURL(); url != "" {
		fmt.Fprintf(&b, "![%s](%s)\n\n", p.Name, url)
	}

	fmt.Fprintf(&b, "- **ID:** #%d\n", p.ID)
	fmt.Fprintf(&b, "- **Height:** %sm\n", formatDecimal(p.HeightMeters()))
	fmt.Fprintf(&b, "- **Weight:** %skg\n", formatDecimal(p.WeightKilograms()))

	types := make([]string, 0, len(p.Types))
	for _, name := range p.TypeNames() {
		types = append(types, DisplayName(name))
	}
	if len(types) > 0 {
		fmt.Fprintf(&b, "- **Types:** %s\n", strings.Join(types, ", "))
	}

	if len(p.Stats) > 0 {
		b.WriteString("\n| Stat | Base |\n|---|---:|\n")
		for _, s := range p.Stats {
			fmt.Fprintf(&b, "| %s | %d |\n", DisplayName(s.Stat.Name), s.BaseStat)
		}
	}

	return b.String()
}

// formatDecimal prints a float without trailing zeros (0.4, 6, 12.5).
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
