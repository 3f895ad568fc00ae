package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/storage"
)

// maxStatsTags is how many tags the stats command lists.
const maxStatsTags = 10

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatBytes formats a file size with binary units
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time, now time.Time) string {
	diff := now.Sub(t)

	// If it's within the last day, show relative time
	if diff >= 0 && diff < 24*time.Hour {
		if diff < time.Hour {
			minutes := int(diff.Minutes())
			if minutes < 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		hours := int(diff.Hours())
		return fmt.Sprintf("%d hours ago", hours)
	}

	// If it's within the last week, show days ago
	if diff >= 0 && diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d days ago", days)
	}

	// Otherwise show the date
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	} else if d < 30*24*time.Hour {
		return fmt.Sprintf("%.1f days", d.Hours()/24)
	} else if d < 365*24*time.Hour {
		return fmt.Sprintf("%.1f months", d.Hours()/(24*30))
	} else {
		return fmt.Sprintf("%.1f years", d.Hours()/(24*365))
	}
}

type statsReport struct {
	ContentDir string
	IndexPath  string
	Index      *storage.Stats
	TopTags    []content.TagCount
	Now        time.Time
}

// formatStats formats content statistics for display
func formatStats(w io.Writer, r statsReport) {
	now := r.Now
	if now.IsZero() {
		now = time.Now()
	}

	fmt.Fprintf(w, "📊 Content Statistics\n")
	fmt.Fprintf(w, "═══════════════════════\n\n")

	fmt.Fprintf(w, "Content: %s\n", r.ContentDir)
	fmt.Fprintf(w, "Index:   %s (%s)\n\n", r.IndexPath, formatBytes(r.Index.SizeBytes))

	fmt.Fprintf(w, "Total posts: %s\n", formatNumber(r.Index.Posts))
	fmt.Fprintf(w, "Total tags:  %s\n", formatNumber(r.Index.Tags))

	if r.Index.Posts == 0 {
		fmt.Fprintf(w, "\nNo posts published yet.\n")
		return
	}

	if r.Index.Oldest != nil {
		fmt.Fprintf(w, "Oldest:      %s\n", formatTime(*r.Index.Oldest, now))
	}
	if r.Index.Newest != nil {
		fmt.Fprintf(w, "Newest:      %s\n", formatTime(*r.Index.Newest, now))
		if r.Index.Oldest != nil {
			fmt.Fprintf(w, "Span:        %s\n", formatDuration(r.Index.Newest.Sub(*r.Index.Oldest)))
		}
	}

	if len(r.TopTags) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTags:\n")
	fmt.Fprintf(w, "─────\n")
	for i, tag := range r.TopTags {
		if i == maxStatsTags {
			fmt.Fprintf(w, "  … and %d more\n", len(r.TopTags)-maxStatsTags)
			break
		}
		percentage := float64(tag.Count) / float64(r.Index.Posts) * 100
		fmt.Fprintf(w, "  🏷  %-24s %3d (%.1f%%)\n", tag.Name, tag.Count, percentage)
	}
}
