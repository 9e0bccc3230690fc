package notifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"

	"ChartQuest/internal/calculator"
	"ChartQuest/internal/chart"
	"ChartQuest/internal/game"
	"ChartQuest/internal/model"
	"ChartQuest/internal/progression"
)

// chartRows is how many recent bars the chart table lists.
const chartRows = 10

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Formatter turns game state into markdown messages.
type Formatter struct {
	Currency string
}

func NewFormatter(currency string) *Formatter {
	if money.GetCurrency(currency) == nil {
		currency = "JPY"
	}
	return &Formatter{Currency: currency}
}

// Money formats a whole-unit amount in the configured currency.
func (f *Formatter) Money(amount int64) string {
	c := money.GetCurrency(f.Currency)
	minor := amount
	for i := 0; i < c.Fraction; i++ {
		minor *= 10
	}
	return money.New(minor, f.Currency).Display()
}

// Price formats a bar price, rounded the way trades are priced.
func (f *Formatter) Price(p float64) string {
	return f.Money(int64(math.Round(p)))
}

func signed(s string, v float64) string {
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatHUD shows level, experience, assets and the clock.
func (f *Formatter) FormatHUD(s game.Snapshot) string {
	var b strings.Builder
	req := progression.RequiredExp(s.Progression.Level)
	pct := progression.Progress(s.Progression)

	fmt.Fprintf(&b, "## 🎮 Lv.%d  %s\n\n", s.Progression.Level, progressBar(pct, 20))
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Experience | %d / %d (%.1f%%) |\n", s.Progression.Exp, req, pct)
	fmt.Fprintf(&b, "| 💰 Total value | %s |\n", f.Money(s.Valuation))
	fmt.Fprintf(&b, "| Cash | %s |\n", f.Money(s.Portfolio.Cash))
	fmt.Fprintf(&b, "| Shares | %d |\n", s.Portfolio.Shares)
	fmt.Fprintf(&b, "| P/L | %s (%+.2f%%) |\n", signed(f.Money(s.ProfitLoss), float64(s.ProfitLoss)), s.ProfitLossPct)
	fmt.Fprintf(&b, "| 📅 Date | %s |\n", s.Clock.Current.Format("2006-01-02 (Mon)"))
	fmt.Fprintf(&b, "| Bars shown | %d / %d |\n", len(s.Visible), s.TotalBars)
	if s.Clock.AtEnd() {
		b.WriteString("\n🏁 Last trading day reached. `reset` to play again.\n")
	}
	return b.String()
}

func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// FormatMetrics shows the current close and its context inside the window.
func (f *Formatter) FormatMetrics(s game.Snapshot) string {
	var b strings.Builder
	change, changePct := calculator.PriceChange(s.Visible)

	b.WriteString("| Close | Change | High | Low | Position |\n|---|---|---|---|---|\n")
	high, low, err := calculator.WindowRange(s.Visible)
	if err != nil {
		fmt.Fprintf(&b, "| %s | - | - | - | - |\n", f.Price(s.Bar.Close))
		return b.String()
	}
	pos := "-"
	if p, err := calculator.WindowPosition(s.Bar.Close, high, low); err == nil {
		pos = fmt.Sprintf("%.0f%%", p*100)
	}
	fmt.Fprintf(&b, "| %s | %s (%+.2f%%) | %s | %s | %s |\n",
		f.Price(s.Bar.Close), signed(f.Price(change), change), changePct, f.Price(s.Bar.High), f.Price(s.Bar.Low), pos)
	return b.String()
}

// FormatChart renders the chart view as a sparkline and a table of recent bars.
func (f *Formatter) FormatChart(v chart.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", v.Title)
	if len(v.Bars) == 0 {
		b.WriteString("_No data to display._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "`%s`\n\n", sparkline(v))
	fmt.Fprintf(&b, "%s .. %s (%s)\n\n", v.AxisStart.Format("2006-01-02"), v.Bars[len(v.Bars)-1].Date.Format("2006-01-02"), v.Kind)
	if v.SkipNonTradingDays {
		if gaps := len(v.Gaps()); gaps > 0 {
			fmt.Fprintf(&b, "⚡️ %d non-trading days hidden\n\n", gaps)
		}
	}

	sma25 := maByDate(v.SMA25)
	sma75 := maByDate(v.SMA75)
	marked := make(map[int64]bool, len(v.Markers))
	for _, m := range v.Markers {
		marked[m.Date.Unix()] = true
	}

	header := []string{"Date"}
	if v.Kind == chart.KindCandlestick {
		header = append(header, "Open", "High", "Low", "Close")
	} else {
		header = append(header, "Close")
	}
	if v.SMA25 != nil {
		header = append(header, "SMA25")
	}
	if v.SMA75 != nil {
		header = append(header, "SMA75")
	}
	header = append(header, "")
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")

	start := len(v.Bars) - chartRows
	if start < 0 {
		start = 0
	}
	for _, bar := range v.Bars[start:] {
		row := []string{bar.Date.Format("01-02 Mon")}
		if v.Kind == chart.KindCandlestick {
			row = append(row, f.Price(bar.Open), f.Price(bar.High), f.Price(bar.Low), f.Price(bar.Close))
		} else {
			row = append(row, f.Price(bar.Close))
		}
		if v.SMA25 != nil {
			row = append(row, maCell(f, sma25, bar))
		}
		if v.SMA75 != nil {
			row = append(row, maCell(f, sma75, bar))
		}
		if marked[bar.Date.Unix()] {
			row = append(row, "▲ buy")
		} else {
			row = append(row, "")
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func maByDate(points []calculator.MAPoint) map[int64]calculator.MAPoint {
	out := make(map[int64]calculator.MAPoint, len(points))
	for _, p := range points {
		out[p.Date.Unix()] = p
	}
	return out
}

func maCell(f *Formatter, points map[int64]calculator.MAPoint, bar model.Bar) string {
	if p, ok := points[bar.Date.Unix()]; ok && p.OK {
		return f.Price(p.Value)
	}
	return "-"
}

// sparkline draws closes across the window. Without Market Time Vision every
// calendar gap leaves a blank cell.
func sparkline(v chart.View) string {
	high, low, err := calculator.WindowRange(v.Bars)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for i, bar := range v.Bars {
		if i > 0 && !v.SkipNonTradingDays {
			gap := int(bar.Date.Sub(v.Bars[i-1].Date).Hours()/24) - 1
			b.WriteString(strings.Repeat(" ", gap))
		}
		idx := len(sparkBlocks) - 1
		if high > low {
			idx = int((bar.Close - low) / (high - low) * float64(len(sparkBlocks)-1))
		}
		idx = max(0, min(idx, len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// FormatTurn summarises an advance.
func (f *Formatter) FormatTurn(r game.TurnResult) string {
	if !r.Moved {
		return "⏹ Already at the last trading day."
	}
	msg := fmt.Sprintf("⏩ %s  total value %s → %s", r.Clock.Current.Format("2006-01-02"), f.Money(r.Before), f.Money(r.After))
	if r.Gained > 0 {
		msg += fmt.Sprintf("  (+%d exp)", r.Gained)
	}
	return msg
}

// FormatTrade summarises a buy or sell.
func (f *Formatter) FormatTrade(r game.TradeResult) string {
	if !r.Executed() {
		if r.Kind == model.TradeSell {
			return "No shares to sell."
		}
		return "Nothing bought."
	}
	if r.Kind == model.TradeBuy {
		return fmt.Sprintf("🛒 Bought %d shares at %s for %s.", r.Quantity, f.Money(r.Price), f.Money(r.Amount))
	}
	msg := fmt.Sprintf("💴 Sold %d shares at %s for %s. Profit %s.",
		r.Quantity, f.Money(r.Price), f.Money(r.Amount), signed(f.Money(r.Profit), float64(r.Profit)))
	if r.Gained > 0 {
		msg += fmt.Sprintf(" (+%d exp)", r.Gained)
	}
	return msg
}

// FormatLevelUp announces a level change and every feature it unlocked.
// Returns an empty string when no level was gained.
func (f *Formatter) FormatLevelUp(r *model.LevelUpResult) string {
	if r == nil || !r.LeveledUp {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Level up! Lv.%d → Lv.%d", r.OldLevel, r.NewLevel)
	for _, feat := range progression.NewlyUnlocked(r.OldLevel, r.NewLevel) {
		b.WriteString("\n" + feat.Message())
	}
	return b.String()
}

// FormatEquipment lists the features and their state at level.
func (f *Formatter) FormatEquipment(level int64, eq model.Equipment) string {
	var b strings.Builder
	b.WriteString("### Equipment\n\n")
	for _, u := range progression.Unlocks {
		state := fmt.Sprintf("🔒 Lv.%d", u.Level)
		if progression.Unlocked(u.Feature, level) {
			state = "✅ unlocked"
			switch u.Feature {
			case progression.FeatureSMA25:
				state = onOff(eq.SMA25)
			case progression.FeatureSMA75:
				state = onOff(eq.SMA75)
			}
		}
		fmt.Fprintf(&b, "- %s: %s\n", u.Name, state)
	}
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "🟢 equipped"
	}
	return "⚪ unequipped"
}

// FormatHelp lists the console commands.
func (f *Formatter) FormatHelp(debug bool) string {
	var b strings.Builder
	b.WriteString("### Commands\n\n")
	b.WriteString("- `next` / `n`: advance one trading day\n")
	b.WriteString("- `prev` / `p`: step back one trading day\n")
	b.WriteString("- `week`, `month`, `skip N`: advance 7, 30 or N trading days\n")
	b.WriteString("- `buy`: buy as many shares as cash allows\n")
	b.WriteString("- `sell`: sell every share\n")
	b.WriteString("- `status`, `chart`: show the HUD or the chart\n")
	b.WriteString("- `equip sma25|sma75`: toggle a moving average\n")
	b.WriteString("- `reset`: start over from level 1\n")
	if debug {
		b.WriteString("- `exp N`: grant N experience\n")
	}
	b.WriteString("- `quit`: leave the game\n")
	return b.String()
}
