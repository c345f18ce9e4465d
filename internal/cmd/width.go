package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/util"
	"github.com/Iron-Ham/termout/internal/width"
)

var widthCmd = &cobra.Command{
	Use:   "width STRING...",
	Short: "Measure how many terminal columns strings occupy",
	Long: `Measure how many terminal columns each string occupies.

The classic engine groups codepoints into display units (emoji sequences,
flags, combining marks) the way terminals draw them. The grapheme engine
uses Unicode grapheme clusters instead. Both are printed next to the width
reported by the ANSI-aware reference measure.

Examples:
  termout width hello 日本 🇷🇺
  termout width --units --engine grapheme "👩‍💻 done"
  termout width --strip "$(tput bold)bold$(tput sgr0)"`,
	Args: cmdlineArgs(cobra.MinimumNArgs(1)),
	RunE: runWidth,
}

// maxTextColumn caps the quoted text in the summary table; --units shows it whole.
const maxTextColumn = 40

var (
	widthEngine    string
	widthNormalize bool
	widthUnits     bool
	widthStrip     bool
)

func init() {
	rootCmd.AddCommand(widthCmd)

	widthCmd.Flags().StringVar(&widthEngine, "engine", "classic", "width engine: classic or grapheme")
	widthCmd.Flags().BoolVar(&widthNormalize, "normalize", false, "count invalid units as one column instead of unknown")
	widthCmd.Flags().BoolVar(&widthUnits, "units", false, "list the units of every string")
	widthCmd.Flags().BoolVar(&widthStrip, "strip", false, "remove escape sequences before measuring")
}

func runWidth(_ *cobra.Command, args []string) error {
	engine, err := width.ParseStrategy(widthEngine)
	if err != nil {
		return cmdlineError(err)
	}
	a := current
	lg := a.lipgloss()
	header := lg.NewStyle().Bold(true)

	summary := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("text", "bytes", engine.String(), "reference").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return lg.NewStyle().Padding(0, 1)
		})

	var b strings.Builder
	var units []string
	for _, arg := range args {
		text := arg
		if widthStrip {
			text = util.StripANSI(text)
		}
		summary.Row(
			util.TruncateANSI(util.Quote(text), maxTextColumn),
			strconv.Itoa(len(text)),
			formatWidth(engine.Width(text, widthNormalize)),
			strconv.Itoa(ansi.StringWidth(text)),
		)
		if widthUnits {
			units = append(units, unitTable(lg, engine, text))
		}
	}
	b.WriteString(summary.Render())
	b.WriteByte('\n')
	for _, u := range units {
		b.WriteString(u)
		b.WriteByte('\n')
	}

	a.diag.Debug("width measured", "engine", engine.String(), "strings", len(args))
	return a.print(context.Background(), b.String())
}

func unitTable(lg *lipgloss.Renderer, engine width.Strategy, text string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("offset", "len", "width", "valid", "unit").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lg.NewStyle().Faint(true).PaddingRight(1)
			}
			return lg.NewStyle().PaddingRight(1)
		})
	for _, u := range engine.Clusters(text) {
		t.Row(
			strconv.Itoa(u.Offset),
			strconv.Itoa(u.Len),
			formatWidth(u.Width),
			strconv.FormatBool(u.Valid),
			util.Quote(text[u.Offset:u.Offset+u.Len]),
		)
	}
	return util.Quote(text) + "\n" + t.Render()
}

func formatWidth(w int) string {
	if w == width.Unknown {
		return "unknown"
	}
	return strconv.Itoa(w)
}
