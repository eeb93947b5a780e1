package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatMaxViews(link *entities.PublicLink) string {
	if link.MaxViews == nil {
		return fmt.Sprintf("%d/unlimited", link.ViewsCount)
	}
	return fmt.Sprintf("%d/%d", link.ViewsCount, *link.MaxViews)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
