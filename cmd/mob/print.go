package mob

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/renaissanceio/renio/attendee"
	discovery "github.com/renaissanceio/renio/mob"
	"github.com/renaissanceio/renio/records"
)

const pending = "(pending)"

func printUpdate(out io.Writer, update discovery.Update) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%d attendees nearby\n", update.At.Format(time.TimeOnly), len(update.Attendees))
	fmt.Fprintln(w, "IDENTITY\tADDRESS\tRSSI\tRANGE\tAGE")
	for _, info := range update.Attendees {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			identity(info), info.Address, info.RSSI, info.Range, info.Age.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func printRecords(out io.Writer, top []records.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tIDENTITY\tSCORE\tLAST SEEN")
	for i, record := range top {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			i+1, record.Identity, record.Score, record.LastUpdated.Format(time.DateTime))
	}
	return w.Flush()
}

func identity(info attendee.Info) string {
	if info.Pending {
		return pending
	}
	return info.Identity
}
