package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roach88/mintctl/internal/minter"
)

func renderTable(headers []string, rows [][]string, align []text.Align) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	tw.AppendHeader(headerRow)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	if len(align) > 0 {
		configs := make([]table.ColumnConfig, 0, len(align))
		for i, a := range align {
			configs = append(configs, table.ColumnConfig{
				Number:      i + 1,
				Align:       a,
				AlignHeader: a,
			})
		}
		tw.SetColumnConfigs(configs)
	}

	return tw.Render() + "\n"
}

func renderMintSummary(res *minter.Result) string {
	rows := [][]string{
		{"Existing editions", fmt.Sprintf("%d", res.ExistingEditions)},
		{"Existing NFTs", fmt.Sprintf("%d", res.ExistingNFTs)},
		{"Editions created", fmt.Sprintf("%d", res.EditionsCreated)},
		{"Batches", fmt.Sprintf("%d", res.Batches)},
		{"NFTs minted", fmt.Sprintf("%d", res.NFTsMinted)},
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"", "Count"}, rows, []text.Align{text.AlignLeft, text.AlignRight}))
	fmt.Fprintf(&b, "Output: %s\n", res.OutputPath)
	fmt.Fprintf(&b, "Run:    %s\n", res.RunID)
	return b.String()
}

func renderRecovery(rec *minter.Recovery) string {
	if rec.Path == "" {
		return "No pending claim keys.\n"
	}

	rows := make([][]string, 0, len(rec.Editions))
	for _, e := range rec.Editions {
		rows = append(rows, []string{e.EditionID, fmt.Sprintf("%d", e.Keys)})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Edition", "Keys"}, rows, []text.Align{text.AlignLeft, text.AlignRight}))
	fmt.Fprintf(&b, "Recovered %d claim keys to %s\n", rec.Total(), rec.Path)
	return b.String()
}
