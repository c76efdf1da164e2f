package display

import (
	"fmt"
	"sort"
	"strings"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/token"
)

// Config describes the static context the table needs to render amounts
// and symbols meaningfully.
type Config struct {
	DecimalsIn  int
	DecimalsOut int
	SymbolIn    string
	SymbolOut   string
}

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorDim    = "\x1b[2m"
)

// renderTable formats batch as an in-place table with the best quote
// starred and highlighted, mirroring titan_display.py's _render_table.
func renderTable(cfg Config, batch domain.QuoteBatch) string {
	if len(batch.Quotes) == 0 {
		return colorYellow + "waiting for quotes..." + colorReset
	}

	winner, hasWinner := domain.WinningQuote(batch)

	sorted := make([]domain.Quote, len(batch.Quotes))
	copy(sorted, batch.Quotes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OutAmount > sorted[j].OutAmount })

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Live Quotes%s\n", colorDim, colorReset)
	fmt.Fprintf(&b, "%sProvider          Route              In %-8s Out %-8s Rate%s\n",
		colorDim, cfg.SymbolIn, cfg.SymbolOut, colorReset)
	fmt.Fprintf(&b, "%s%s%s\n", colorDim, strings.Repeat("-", 75), colorReset)

	for _, q := range sorted {
		marker := " "
		color := ""
		if hasWinner && q.ProviderID == winner.ProviderID {
			marker = "*"
			color = colorGreen
		}
		fmt.Fprintf(&b, "%s%s %-16s %-18s %-12s %-12s %s%s\n",
			color, marker, q.ProviderID, formatRoute(q.RouteDescription),
			token.FromBaseUnits(q.InAmount, cfg.DecimalsIn),
			token.FromBaseUnits(q.OutAmount, cfg.DecimalsOut),
			rate(q.InAmount, q.OutAmount),
			colorReset,
		)
	}

	return b.String()
}

func formatRoute(steps []domain.RouteStep) string {
	if len(steps) == 0 {
		return "Direct"
	}

	labels := make([]string, 0, 3)
	for i, step := range steps {
		if i >= 3 {
			break
		}
		fields := strings.Fields(step.Label)
		if len(fields) > 0 {
			labels = append(labels, fields[0])
		}
	}

	route := strings.Join(labels, " -> ")
	if len(steps) > 3 {
		route += fmt.Sprintf(" +%d", len(steps)-3)
	}
	return route
}

func rate(inAmount, outAmount uint64) string {
	if inAmount == 0 {
		return "0.0000"
	}
	return fmt.Sprintf("%.4f", float64(outAmount)/float64(inAmount))
}

// summaryLine is printed once on the non-TTY degrade path, after stream
// end or confirmation.
func summaryLine(cfg Config, winner domain.Quote, hasWinner bool) string {
	if !hasWinner {
		return "no quotes received"
	}
	return fmt.Sprintf("best: %s in=%s %s out=%s %s",
		winner.ProviderID,
		token.FromBaseUnits(winner.InAmount, cfg.DecimalsIn), cfg.SymbolIn,
		token.FromBaseUnits(winner.OutAmount, cfg.DecimalsOut), cfg.SymbolOut,
	)
}
