package tui

import (
	"fmt"
	"strings"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/services"
)

// formatStatsBar renders one segment per direction:
// "Courrier arrivé 12 • en attente 3 • en cours 2 • traité 6 • archivé 1"
func formatStatsBar(summary []services.DirectionSummary) string {
	parts := make([]string, 0, len(summary))
	for _, s := range summary {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %d", s.Direction.Label(), s.Stats.Total)
		for _, st := range courrier.CanonicalStatuses() {
			fmt.Fprintf(&b, " • %s %d", strings.ToLower(st.Label()), s.Stats.Count(st))
		}
		if n := s.Stats.ByStatus[courrier.StatusUnknown]; n > 0 {
			fmt.Fprintf(&b, " • inconnu %d", n)
		}
		parts = append(parts, b.String())
	}
	return " " + strings.Join(parts, "   │   ")
}

// refreshStats redraws the stats bar
func (a *App) refreshStats() {
	if a.statsView == nil || a.registry == nil {
		return
	}
	a.statsView.SetText(formatStatsBar(a.registry.Summary()))
}
