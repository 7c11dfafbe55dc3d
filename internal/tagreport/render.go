package tagreport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatCSV  = "csv"
)

// Write renders report in format.
func Write(w io.Writer, report Report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return WriteText(w, report)
	case FormatCSV:
		return WriteCSV(w, report)
	default:
		return fmt.Errorf("unknown report format %q (want text or csv)", format)
	}
}

// WriteText renders the human-readable report: a summary followed by one
// block per section.
func WriteText(w io.Writer, report Report) error {
	var b strings.Builder
	b.WriteString("Metadata Tags Report\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.Generated.Format("2006-01-02 15:04:05"))
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "- Files scanned: %d\n", report.Files)
	fmt.Fprintf(&b, "- Files without metadata: %d\n", len(report.Failures))
	fmt.Fprintf(&b, "- Total metadata groups: %d\n", len(report.Groups))
	fmt.Fprintf(&b, "- Total unique tags: %d\n\n", report.TagCount())
	b.WriteString("Metadata Groups and Tags:\n")
	b.WriteString("=========================\n")
	for _, group := range report.Groups {
		fmt.Fprintf(&b, "\n[%s] (%d tags)\n", group.Name, len(group.Tags))
		b.WriteString(strings.Repeat("-", len(group.Name)+20))
		b.WriteByte('\n')
		for _, tag := range group.Tags {
			fmt.Fprintf(&b, "  %s\n", tag)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV renders one row per section/tag pair.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Group", "Tag", "Group_Tag_Count", "Total_Groups", "Total_Tags"}); err != nil {
		return err
	}
	totalGroups := strconv.Itoa(len(report.Groups))
	totalTags := strconv.Itoa(report.TagCount())
	for _, group := range report.Groups {
		count := strconv.Itoa(len(group.Tags))
		for _, tag := range group.Tags {
			if err := cw.Write([]string{group.Name, tag, count, totalGroups, totalTags}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
