package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"descgraph/internal/descriptors"
	"descgraph/internal/driver"
)

var membersCmd = &cobra.Command{
	Use:   "members [flags] <package.Class> [file.yaml|directory...]",
	Short: "List the members of a class, inherited ones included",
	Long: `List the constructors and members of a class as seen by its users: declared
members, fake overrides of inherited ones and synthesized enum functions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().Bool("static", false, "list the static scope (enum entries, nested classes) instead")
	membersCmd.Flags().Bool("body", false, "print the class as a declaration body instead of a table")
}

func runMembers(cmd *cobra.Command, args []string) error {
	static, err := cmd.Flags().GetBool("static")
	if err != nil {
		return fmt.Errorf("failed to get static flag: %w", err)
	}
	body, err := cmd.Flags().GetBool("body")
	if err != nil {
		return fmt.Errorf("failed to get body flag: %w", err)
	}

	name := args[0]
	in, err := collectInputs(cmd, args[1:])
	if err != nil {
		return err
	}
	res, err := runAnalysis(cmd, in, nil)
	if err != nil {
		return err
	}
	if res.Resolver == nil {
		return analysisFailed(res)
	}
	class := res.Resolver.Lookup(name)
	if class == nil {
		if near := res.Resolver.Suggest(name); near != "" {
			return fmt.Errorf("no class %q; did you mean %q?", name, near)
		}
		return fmt.Errorf("no class %q", name)
	}

	out := cmd.OutOrStdout()
	switch {
	case body:
		fmt.Fprintln(out, res.Renderer.Body(class))
	case static:
		printMemberTable(out, res, class.StaticScope().ContributedDescriptors())
	default:
		members := append([]*descriptors.Decl(nil), class.Constructors()...)
		members = append(members, class.UnsubstitutedMemberScope().ContributedDescriptors()...)
		printMemberTable(out, res, members)
	}
	return printTimings(cmd, res)
}

// printMemberTable writes one row per member: origin, name, signature.
// Columns are aligned by display width so escaped names with wide
// characters line up.
func printMemberTable(out io.Writer, res *driver.Result, members []*descriptors.Decl) {
	rows := make([][3]string, 0, len(members))
	var widths [2]int
	for _, m := range members {
		row := [3]string{memberOrigin(m), m.NameString(), res.Renderer.String(m)}
		for i := range widths {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
		rows = append(rows, row)
	}
	indent := strings.Repeat(" ", widths[0]+widths[1]+4)
	for _, row := range rows {
		lines := strings.Split(row[2], "\n")
		fmt.Fprintf(out, "%s  %s  %s\n",
			runewidth.FillRight(row[0], widths[0]),
			runewidth.FillRight(row[1], widths[1]),
			lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(out, "%s%s\n", indent, l)
		}
	}
}

func memberOrigin(d *descriptors.Decl) string {
	if c := d.Callable(); c != nil {
		return c.Kind().String()
	}
	return d.Kind().String()
}
