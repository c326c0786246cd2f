// Package cli implements colorized help and quick reference card using lipgloss.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Catppuccin Mocha color palette.
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands
	colorYellow  = lipgloss.Color("#f9e2af") // Flags
	colorRed     = lipgloss.Color("#f38ba8") // CRITICAL risk
	colorPeach   = lipgloss.Color("#fab387") // HIGH risk
	colorCaution = lipgloss.Color("#f9e2af") // MODERATE risk
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
	colorText    = lipgloss.Color("#cdd6f4") // Normal text
	colorBase    = lipgloss.Color("#1e1e2e") // Background
)

// Styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	criticalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	highStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	moderateStyle = lipgloss.NewStyle().
			Foreground(colorCaution)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorBase).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

func showQuickReference() {
	width := clampWidth(detectWidth())
	useUnicode := supportsUnicode()

	border := lipgloss.RoundedBorder()
	if !useUnicode {
		border = lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}
	}

	container := boxStyle.Copy().Border(border).Width(width)

	titleText := " CMDAI QUICK REFERENCE — Natural Language to Shell "
	titleRendered := gradientText(titleText, []lipgloss.Color{colorMauve, colorBlue})
	if !useUnicode {
		titleRendered = "CMDAI QUICK REFERENCE - Natural Language to Shell"
	}
	title := titleStyle.Copy().Width(width - 4).Align(lipgloss.Center).Render(titleRendered)

	run := renderSection(useUnicode, "🔷 RUN", []string{
		bullet(`cmdai run "list every file over 1GB modified this week"`, "generate, validate, and confirm a command"),
		bullet(`cmdai run "..." --execute`, "run it immediately if the safety policy allows"),
		bullet(`cmdai run "..." --safety-policy strict`, "override the configured policy for one request"),
	})

	cache := renderSection(useUnicode, "🔶 CACHE", []string{
		bullet("cmdai cache stats", "show cached model count and size"),
		bullet("cmdai cache verify", "reverify checksums of every cached model"),
		bullet("cmdai cache clear", "remove every cached model"),
	})

	patterns := renderSection(useUnicode, "🛡️ PATTERNS", []string{
		bullet("cmdai patterns list", "show recorded (prompt, command) history"),
		bullet("cmdai patterns export", "export mined improvement patterns as JSON"),
	})

	cfg := renderSection(useUnicode, "🔧 CONFIG", []string{
		bullet("cmdai config get general.safety_policy", "read a configuration key"),
		bullet("cmdai config set general.safety_policy strict", "write a configuration key"),
		bullet("cmdai config edit", "open the config file in $EDITOR"),
	})

	risk := riskLegend(useUnicode)
	flags := flagLegend(useUnicode)
	footer := footerLegend(useUnicode)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		run,
		cache,
		patterns,
		cfg,
		risk,
		flags,
		footer,
	)

	fmt.Println(container.Render(content))
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func supportsUnicode() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	locale := strings.ToLower(strings.Join([]string{
		os.Getenv("LC_ALL"),
		os.Getenv("LC_CTYPE"),
		os.Getenv("LANG"),
	}, " "))
	if strings.Contains(termEnv, "dumb") {
		return false
	}
	return strings.Contains(locale, "utf-8") || strings.Contains(locale, "utf8")
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 || !supportsUnicode() {
		return text
	}
	runes := []rune(text)
	segments := len(colors)
	if segments == 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}
	if len(runes) <= 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		idx := i * (segments - 1) / (len(runes) - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(colors[idx]).Render(string(r)))
	}
	return b.String()
}

func bullet(command, desc string) string {
	return commandStyle.Render("  "+command) + mutedStyle.Render("  "+desc)
}

func renderSection(useUnicode bool, title string, lines []string) string {
	if !useUnicode {
		title = strings.TrimLeft(title, "🔷🔶🛡️🔧 ")
	}
	header := sectionStyle.Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func riskLegend(useUnicode bool) string {
	crit := "CRITICAL (blocked)"
	high := "HIGH (confirm)"
	mod := "MODERATE (allow)"
	if useUnicode {
		crit = "🔴 " + crit
		high = "🟠 " + high
		mod = "🟡 " + mod
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("🎯 RISK LEVELS"),
		fmt.Sprintf("  %s   %s   %s", criticalStyle.Render(crit), highStyle.Render(high), moderateStyle.Render(mod)),
	)
}

func flagLegend(useUnicode bool) string {
	prefix := "🚩 GLOBAL FLAGS"
	if !useUnicode {
		prefix = "FLAGS"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(prefix),
		flagStyle.Render("  -j, --json")+mutedStyle.Render("              structured output"),
		flagStyle.Render("  -C, --project <dir>")+mutedStyle.Render("   override project directory"),
		flagStyle.Render("  --shell <name>")+mutedStyle.Render("          target shell dialect"),
		flagStyle.Render("  --safety-policy <name>")+mutedStyle.Render("  override safety policy"),
	)
}

func footerLegend(useUnicode bool) string {
	help := "cmdai <command> --help"
	if !useUnicode {
		return mutedStyle.Render("HELP: " + help)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mutedStyle.Render("HELP: "), commandStyle.Render(help),
	)
}
