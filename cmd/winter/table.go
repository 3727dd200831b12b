package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"winter/internal/daemonctl"
)

// renderStatusTable lists the runtime files and process details behind a
// status line.
func renderStatusTable(st daemonctl.Status) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Item", "Value", "Present"})
	tw.AppendRows([]table.Row{
		{"Base directory", st.Layout.Base, ""},
		{"Control socket", st.Layout.Socket, yesNo(st.SocketPresent)},
		{"PID file", st.Layout.PIDFile, yesNo(st.PIDFilePresent)},
		{"Process id", pidValue(st.PID), ""},
		{"Process group", pidValue(st.ProcessGroup), ""},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})
	return tw.Render()
}

func pidValue(pid int) string {
	if pid <= 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
