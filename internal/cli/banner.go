package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"

	"pennywise/internal/config"
)

// PrintBanner writes the startup banner of a long-running process to w.
func PrintBanner(w io.Writer, title string, cfg *config.Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	storage := cfg.DataBackend
	switch cfg.DataBackend {
	case config.BackendSQLite:
		storage += " (" + cfg.SQLiteDBPath + ")"
	case config.BackendFile:
		storage += " (" + cfg.DataDirectory + ")"
	}
	events := "disabled"
	if cfg.AMQPURL != "" {
		events = cfg.AMQPExchange + " -> " + cfg.AMQPQueue
	}
	mirror := "memory only"
	if cfg.MirrorEnabled() {
		mirror = cfg.GoogleSpreadsheetID
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  PENNYWISE  %s%s\n\n", textColor, title, banner.ColorReset)
	for _, kv := range [][2]string{
		{"Storage", storage},
		{"Events", events},
		{"Spreadsheet", mirror},
		{"Sync interval", cfg.SyncInterval.String()},
		{"Timezone", cfg.Timezone},
	} {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}
