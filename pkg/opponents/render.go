package opponents

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"pitwallrelay/pkg/helper"
)

// RenderProfiles returns the current profile set as a rounded table, for the
// periodic debug dump.
func (t *Tracker) RenderProfiles() string {
	slots := make([]int, 0, len(t.profiles))
	for slot := range t.profiles {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	var b bytes.Buffer
	w := table.NewWriter()
	w.SetOutputMirror(&b)
	w.SetStyle(table.StyleRounded)
	w.AppendHeader(table.Row{"PIL", "DRIVER", "AGGR", "OFFS"})
	for _, slot := range slots {
		p := t.profiles[slot]
		w.AppendRow(table.Row{
			helper.DriverShortName(p.DriverName),
			p.DriverName,
			fmt.Sprintf("%.1f", p.AggressionScore),
			p.MistakeCount,
		})
	}
	w.Render()
	return b.String()
}
