package copper

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const defaultHelpWidth = 120

func helpWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return min(w, defaultHelpWidth)
	}
	return defaultHelpWidth
}

func flagCategory(f cli.Flag) string {
	if c, ok := f.(cli.CategorizableFlag); ok && c.GetCategory() != "" {
		return c.GetCategory()
	}
	return "Global Options"
}

func flagHidden(f cli.Flag) bool {
	v := reflect.Indirect(reflect.ValueOf(f))
	if fld := v.FieldByName("Hidden"); fld.IsValid() && fld.Kind() == reflect.Bool {
		return fld.Bool()
	}
	return false
}

// CategorizedHelpPrinter groups flags under their category headings.
func CategorizedHelpPrinter() {
	fallback := cli.HelpPrinter
	section := color.New(color.FgGreen, color.Bold).SprintFunc()
	category := color.New(color.FgCyan, color.Bold).SprintFunc()

	cli.HelpPrinter = func(w io.Writer, templ string, data interface{}) {
		var (
			flags []cli.Flag
			cmds  []*cli.Command
			name  string
			usage string
			desc  string
		)
		switch v := data.(type) {
		case *cli.App:
			flags, cmds, name, usage, desc = v.VisibleFlags(), v.VisibleCommands(), v.HelpName, v.Usage, v.Description
		case *cli.Command:
			flags, cmds, name, usage, desc = v.VisibleFlags(), v.Subcommands, v.HelpName, v.Usage, v.Description
		default:
			fallback(w, templ, data)
			return
		}

		fmt.Fprintf(w, "%s\n   %s - %s\n\n", section("NAME:"), name, usage)
		fmt.Fprintf(w, "%s\n   %s [options]\n\n", section("USAGE:"), name)
		if desc != "" {
			fmt.Fprintf(w, "%s\n   %s\n\n", section("DESCRIPTION:"), desc)
		}

		if len(cmds) > 0 {
			fmt.Fprintln(w, section("COMMANDS:"))
			for _, c := range cmds {
				if c.Hidden || c.Name == "help" {
					continue
				}
				fmt.Fprintf(w, "   %-12s  %s\n", c.Name, c.Usage)
			}
			fmt.Fprintln(w)
		}

		groups := make(map[string][]string)
		labelWidth := 0
		for _, f := range flags {
			if flagHidden(f) {
				continue
			}
			label := strings.SplitN(f.String(), "\t", 2)[0]
			if strings.HasPrefix(label, "--help") {
				continue
			}
			labelWidth = max(labelWidth, len(label))
		}
		width := helpWidth()
		for _, f := range flags {
			if flagHidden(f) {
				continue
			}
			parts := strings.SplitN(f.String(), "\t", 2)
			if strings.HasPrefix(parts[0], "--help") {
				continue
			}
			text := ""
			if len(parts) == 2 {
				text = strings.Join(strings.Fields(parts[1]), " ")
			}
			if limit := width - labelWidth - 6; limit > 20 && len(text) > limit {
				text = text[:limit-3] + "..."
			}
			c := flagCategory(f)
			groups[c] = append(groups[c], fmt.Sprintf("  %-*s  %s", labelWidth, parts[0], text))
		}
		if len(groups) == 0 {
			return
		}

		fmt.Fprintln(w, section("OPTIONS:"))
		names := make([]string, 0, len(groups))
		for c := range groups {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			fmt.Fprintf(w, "\n  %s\n", category(c))
			for _, line := range groups[c] {
				fmt.Fprintln(w, line)
			}
		}
		fmt.Fprintln(w)
	}
}
