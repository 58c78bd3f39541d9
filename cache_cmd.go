package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
)

type cacheCmd struct {
	rt *runtime
}

func (*cacheCmd) Name() string     { return "cache" }
func (*cacheCmd) Synopsis() string { return "inspect the archive cache" }
func (*cacheCmd) Usage() string {
	return `cache ls:
  List every cached archive with its size and storage time.
`
}

func (*cacheCmd) SetFlags(*flag.FlagSet) {}

func (c *cacheCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || f.Arg(0) != "ls" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err := c.rt.init(); err != nil {
		return fail(c.rt, err)
	}

	entries, err := c.rt.components.Inspector.Entries(ctx)
	if err != nil {
		return fail(c.rt, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSIZE\tSTORED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.URL, e.Size, e.StoredAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return fail(c.rt, err)
	}
	return subcommands.ExitSuccess
}
