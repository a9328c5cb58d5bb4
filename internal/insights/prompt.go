package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/litterscan/litterscan/internal/analytics"
)

// BuildPrompt renders the narrative request for stats and the ranked hotspots.
func BuildPrompt(stats *analytics.Stats, hotspots []analytics.Hotspot) string {
	breakdown, _ := json.MarshalIndent(stats.TrashTypes, "", "  ")
	top, _ := json.MarshalIndent(hotspots, "", "  ")

	var b strings.Builder
	b.WriteString("Analyze this trash detection data and provide environmental insights:\n\n")
	fmt.Fprintf(&b, "Total trash items detected: %d\n", stats.TotalItems)
	fmt.Fprintf(&b, "Number of locations scanned: %d\n\n", stats.TotalDetections)
	fmt.Fprintf(&b, "Trash breakdown:\n%s\n\n", breakdown)
	fmt.Fprintf(&b, "Top %d trash hotspots:\n%s\n\n", len(hotspots), top)
	b.WriteString(`Please provide:
1. A brief summary of the trash situation (2-3 sentences)
2. 3-5 specific, actionable recommendations for cleanup and prevention
3. Analysis of which locations need immediate attention and why

Format your response as JSON with keys: "summary", "recommendations" (array), "hotspot_analysis" (array)
Be encouraging and solution-focused. Focus on environmental impact and community action.`)
	return b.String()
}
