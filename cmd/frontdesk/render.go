package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/TheDarkness2001/SMS-sub002/internal/money"
)

const dateLayout = "2006-01-02 15:04"

// table writes aligned columns. Coloured cells go last in a row since
// escape sequences count towards the column width.
type table struct {
	tw *tabwriter.Writer
}

func (a *app) table(headerKeys ...string) *table {
	t := &table{tw: tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)}
	header := make([]string, len(headerKeys))
	for i, k := range headerKeys {
		header[i] = a.locale.T(k)
	}
	t.row(header...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() {
	_ = t.tw.Flush()
}

// paint colours text when writing to a terminal
func (a *app) paint(c money.Color, text string) string {
	if !a.color {
		return text
	}
	return c.ANSI(text)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
