package inspect

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/internal/command"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgm"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

func action(_ context.Context, cmd *cli.Command) error {
	repo, err := command.Load(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	w := cmd.Root().Writer
	switch format := cmd.String("format"); format {
	case "table":
		infos, errs := repo.Debug()
		writeSources(w, repo.Sources())
		writeTable(w, infos)
		if len(errs) > 0 {
			_, _ = fmt.Fprintf(w, "\n%s\n", errs)
			return fmt.Errorf("config has %d error(s)", len(errs))
		}
		return nil

	case "yaml":
		placeholder := value.Redacted
		if cmd.Bool("secrets") {
			placeholder = ""
		}
		out, err := repo.Canonicalize(placeholder)
		if err != nil {
			return err
		}
		return writeYAML(w, out)

	case "example":
		content, err := cfgm.ExampleYAML(repo.Schema())
		if err != nil {
			return err
		}
		_, err = w.Write(content)
		return err

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeYAML(w io.Writer, v any) error {
	content, err := cfgm.MarshalYAML(v)
	if err != nil {
		return err
	}
	_, err = w.Write(content)

	return err
}

func writeSources(w io.Writer, sources []cfgtree.SourceInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PRIORITY\tPARAMS\tSOURCE")
	for i := len(sources) - 1; i >= 0; i-- {
		s := sources[i]
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\n", s.Priority, s.ParamCount, s.Origin)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
}

func writeTable(w io.Writer, infos []cfgtree.ParamInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tSTATUS\tVALUE\tORIGIN")
	for _, info := range infos {
		origin := "-"
		if info.Origin != nil {
			origin = info.Origin.String()
		}
		if info.Deprecated {
			origin += " (deprecated name)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Path, info.Status, orDash(info.RawString()), origin)
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}
