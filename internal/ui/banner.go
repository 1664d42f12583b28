package ui

import (
	"fmt"

	"github.com/fatih/color"
)

var bannerArt = []string{
	"██████╗ ██╗     ██╗   ██╗███████╗██████╗ ██████╗ ██╗███╗   ██╗████████╗",
	"██╔══██╗██║     ██║   ██║██╔════╝██╔══██╗██╔══██╗██║████╗  ██║╚══██╔══╝",
	"██████╔╝██║     ██║   ██║█████╗  ██████╔╝██████╔╝██║██╔██╗ ██║   ██║   ",
	"██╔══██╗██║     ██║   ██║██╔══╝  ██╔═══╝ ██╔══██╗██║██║╚██╗██║   ██║   ",
	"██████╔╝███████╗╚██████╔╝███████╗██║     ██║  ██║██║██║ ╚████║   ██║   ",
	"╚═════╝ ╚══════╝ ╚═════╝ ╚══════╝╚═╝     ╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝   ╚═╝   ",
}

// Banner prints the startup banner. Rows alternate between two shades.
func (c *Console) Banner(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := color.New(color.FgCyan, color.Bold)
	shades := []*color.Color{
		color.New(color.FgHiCyan),
		color.New(color.FgHiMagenta),
	}
	yellow := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(c.out)
	frame.Fprintln(c.out, "╔══════════════════════════════════════════════════════════════════════════╗")
	for i, row := range bannerArt {
		frame.Fprint(c.out, "║  ")
		shades[i%len(shades)].Fprint(c.out, row)
		frame.Fprintln(c.out, "  ║")
	}
	frame.Fprintln(c.out, "╠══════════════════════════════════════════════════════════════════════════╣")
	frame.Fprint(c.out, "║  ")
	yellow.Fprint(c.out, "HPN BLUEPRINT")
	dim.Fprint(c.out, "  │  requirements → SRS, diagrams, schema, stack  │  ")
	fmt.Fprintf(c.out, "%-8s", version)
	frame.Fprintln(c.out, "║")
	frame.Fprintln(c.out, "╚══════════════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(c.out)
}
