package cli

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/approval"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// isTerminal reports whether stream is an interactive terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func colorEnabled(w io.Writer) bool {
	return isTerminal(w)
}

func statusText(w io.Writer, s approval.Status) string {
	label := s.String()
	if !colorEnabled(w) {
		return label
	}
	switch s {
	case approval.StatusApproved:
		return text.FgGreen.Sprint(label)
	case approval.StatusRejected:
		return text.FgRed.Sprint(label)
	default:
		return text.FgYellow.Sprint(label)
	}
}

func tagText(w io.Writer, t approval.Tag) string {
	label := string(t)
	if !colorEnabled(w) {
		return label
	}
	switch t {
	case approval.TagApproved:
		return text.FgGreen.Sprint(label)
	case approval.TagRejected:
		return text.FgRed.Sprint(label)
	case approval.TagResubmitted:
		return text.FgCyan.Sprint(label)
	default:
		return label
	}
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return ts.UTC().Format(approval.TimestampLayout) + " UTC"
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
