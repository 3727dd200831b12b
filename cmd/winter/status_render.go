package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"winter/internal/daemonctl"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func renderStatusLine(st daemonctl.Status, colorize bool) string {
	line := "Spring server is not running."
	color := ansiRed
	if st.Running {
		line = fmt.Sprintf("Spring server is running, process id is %d.", st.PID)
		color = ansiGreen
	}
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
