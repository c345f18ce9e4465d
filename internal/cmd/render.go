package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/termout/internal/cell"
	"github.com/Iron-Ham/termout/internal/sgr"
	"github.com/Iron-Ham/termout/internal/trim"
)

var renderCmd = &cobra.Command{
	Use:   "render VALUE...",
	Short: "Render values into a formatted field",
	Long: `Render values into one field, or one field per value with --columns.

Values that parse as integers, floats or true/false are rendered as
numbers and booleans, so the number flags apply to them. Use --raw to
render every value as text.

Examples:
  termout render --width 12 --align right 42
  termout render --width 8 --fg red --style bold,underline "long text here"
  termout render --columns --width 6 --base hex 255 4096 true`,
	Args: cmdlineArgs(cobra.MinimumNArgs(1)),
	RunE: runRender,
}

var (
	renderWidth      int
	renderAlign      string
	renderPad        string
	renderFg         string
	renderBg         string
	renderStyle      string
	renderCutLen     int
	renderCutChar    string
	renderCutDir     string
	renderNoTrunc    bool
	renderEnd        string
	renderNormalize  string
	renderPrecision  int
	renderFixed      bool
	renderScientific bool
	renderBase       string
	renderUppercase  bool
	renderShowPos    bool
	renderBoolAlpha  bool
	renderRaw        bool
	renderColumns    bool
	renderMeasure    bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	f := renderCmd.Flags()
	f.IntVar(&renderWidth, "width", cell.Unset, "field width in columns (-1 for none, 0 hides the field)")
	f.StringVar(&renderAlign, "align", "left", "alignment: left, right or centre")
	f.StringVar(&renderPad, "pad", " ", "padding character")
	f.StringVar(&renderFg, "fg", "default", "foreground colour")
	f.StringVar(&renderBg, "bg", "default", "background colour")
	f.StringVar(&renderStyle, "style", "", "comma separated styles (bold, faint, italic, underline, ...)")
	f.IntVar(&renderCutLen, "cut-len", 3, "columns of the truncation marker")
	f.StringVar(&renderCutChar, "cut-char", ".", "truncation marker character")
	f.StringVar(&renderCutDir, "cut-dir", "left", "side kept when truncating: left or right")
	f.BoolVar(&renderNoTrunc, "no-trunc", false, "never truncate")
	f.StringVar(&renderEnd, "end", "newline", "after the field: none, flush, newline, pad or pad-flush")
	f.StringVar(&renderNormalize, "normalize", "allowed", "control character replacement: forbidden, allowed or required")
	f.IntVar(&renderPrecision, "precision", cell.Unset, "float precision")
	f.BoolVar(&renderFixed, "fixed", false, "fixed-point floats")
	f.BoolVar(&renderScientific, "scientific", false, "scientific floats")
	f.StringVar(&renderBase, "base", "dec", "integer base: dec, hex or oct")
	f.BoolVar(&renderUppercase, "uppercase", false, "upper case hex digits and exponents")
	f.BoolVar(&renderShowPos, "showpos", false, "prefix non-negative numbers with '+'")
	f.BoolVar(&renderBoolAlpha, "bool-alpha", false, "print booleans as true/false")
	f.BoolVar(&renderRaw, "raw", false, "render every value as text")
	f.BoolVar(&renderColumns, "columns", false, "render one field per value")
	f.BoolVar(&renderMeasure, "measure", false, "print the width the field would occupy instead of the field")
}

func runRender(_ *cobra.Command, args []string) error {
	format, err := renderFormat()
	if err != nil {
		return cmdlineError(err)
	}
	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = parseValue(arg, renderRaw)
	}

	a := current
	defer a.stdoutScope()()

	if renderMeasure {
		return a.print(context.Background(), formatWidth(a.renderer.Measure(format, values...))+"\n")
	}

	var buf bytes.Buffer
	if renderColumns {
		last := format.End
		for i, v := range values {
			f := format
			if i < len(values)-1 {
				f.End = cell.EndNone
			} else {
				f.End = last
			}
			if err := a.renderer.Apply(&buf, f, &cell.Cell{}, v); err != nil {
				return err
			}
		}
	} else if err := a.renderer.Apply(&buf, format, &cell.Cell{}, values...); err != nil {
		return err
	}
	return a.print(context.Background(), buf.String())
}

func renderFormat() (cell.Format, error) {
	f := cell.NewFormat()
	f.Width = renderWidth

	var err error
	if f.Align, err = cell.ParseAlign(renderAlign); err != nil {
		return f, err
	}
	if f.Pad, err = singleByte("pad", renderPad); err != nil {
		return f, err
	}
	if f.End, err = cell.ParseEndPolicy(renderEnd); err != nil {
		return f, err
	}
	if f.Normalize, err = cell.ParseNormalize(renderNormalize); err != nil {
		return f, err
	}

	f.Truncate.Enabled = !renderNoTrunc
	f.Truncate.CutLen = renderCutLen
	if f.Truncate.CutChar, err = singleByte("cut-char", renderCutChar); err != nil {
		return f, err
	}
	if f.Truncate.Direction, err = trim.ParseDirection(renderCutDir); err != nil {
		return f, err
	}

	if f.Style.Fg, err = sgr.ParseColor(renderFg); err != nil {
		return f, err
	}
	if f.Style.Bg, err = sgr.ParseColor(renderBg); err != nil {
		return f, err
	}
	if f.Style.Styles, err = sgr.ParseStyles(renderStyle); err != nil {
		return f, err
	}

	f.Manip = cell.Manip{
		Precision:  renderPrecision,
		Fixed:      renderFixed,
		Scientific: renderScientific,
		BoolAlpha:  renderBoolAlpha,
		Uppercase:  renderUppercase,
		ShowPos:    renderShowPos,
	}
	if f.Manip.Base, err = cell.ParseBase(renderBase); err != nil {
		return f, err
	}
	return f, nil
}

func singleByte(flag, s string) (byte, error) {
	if len(s) != 1 || s[0] < 0x20 || s[0] > 0x7e {
		return 0, fmt.Errorf("--%s must be one printable ASCII character, got %q", flag, s)
	}
	return s[0], nil
}

// parseValue types a command line value: integers (with 0x and 0o
// prefixes), then floats, then the words true and false. Everything else
// stays text.
func parseValue(s string, raw bool) any {
	if raw || s == "" {
		return s
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return cast.ToBool(strings.ToLower(s))
	}
	if !strings.ContainsAny(s[:1], "+-.0123456789") {
		return s
	}
	if !strings.Contains(s, ".") {
		if v, err := cast.ToInt64E(s); err == nil {
			return v
		}
	}
	if v, err := cast.ToFloat64E(s); err == nil {
		return v
	}
	return s
}
