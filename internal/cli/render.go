package cli

import (
	"fmt"
	"io"

	"github.com/roach88/saveplus/internal/history"
)

// eventTimeLayout is used for every timestamp printed in text mode.
const eventTimeLayout = "2006-01-02 15:04:05"

// writeEvents prints one line per event plus an indented note line.
func writeEvents(w io.Writer, events []history.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No history found.")
		return
	}
	for _, ev := range events {
		writeEvent(w, ev)
	}
}

func writeEvent(w io.Writer, ev history.Event) {
	fmt.Fprintf(w, "%s  %-11s  %s  [%s]\n",
		ev.Timestamp.UTC().Format(eventTimeLayout), ev.Kind, ev.FileName, ev.ID)
	if ev.Note != "" {
		fmt.Fprintf(w, "    note: %s\n", ev.Note)
	}
}
