package banner

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

func Print() {
	ptermLogo, _ := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithRGB("Log", pterm.NewRGB(255, 107, 53)),
		putils.LettersFromStringWithRGB("lite", pterm.NewRGB(0, 0, 0))).
		Srender()

	pterm.DefaultCenter.Print(ptermLogo)

	pterm.DefaultCenter.Print(
		pterm.DefaultHeader.
			WithFullWidth().
			WithBackgroundStyle(pterm.NewStyle(pterm.BgLightRed)).
			WithMargin(5).
			Sprint(pterm.White("Loglite - Ingest, Search, Expire")),
	)

	pterm.Info.Println(
		"Single-node log ingestion and full-text search." +
			"\nTails files, parses common formats, indexes events, and expires them on schedule." +
			"\nVersion 0.0.1.",
	)
}
