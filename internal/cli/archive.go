package cli

import (
	"strings"

	"halo-cli/internal/archive"

	"github.com/spf13/cobra"
)

type archiveListOutput struct {
	Data  archiveListData `json:"data"`
	Hints []string        `json:"_hints"`
}

type archiveListData struct {
	Path    string          `json:"path"`
	Entries []archive.Entry `json:"entries"`
}

func (o archiveListOutput) Text() string {
	var b strings.Builder
	for i, e := range o.Data.Entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("# " + e.CreatedAt.Local().Format("2006-01-02 15:04:05") + "\n")
		b.WriteString(e.Text)
	}
	return b.String()
}

func newArchiveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the archive of exported snapshots",
	}
	cmd.AddCommand(newArchiveListCmd(app))
	return cmd
}

func newArchiveListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Example: strings.TrimSpace(`
halo --archive ~/.halo/snapshots.sqlite archive list --limit 5
HALO_ARCHIVE=~/.halo halo archive list --format text
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if arch == nil {
				return writeErr(cmd, errNoArchive)
			}
			defer arch.Close()

			entries, err := arch.List(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []archive.Entry{}
			}
			hints := []string{}
			if len(entries) == 0 {
				hints = append(hints, "halo snapshot --copy --archive "+arch.Path())
			}
			return writeOut(cmd, app, archiveListOutput{
				Data:  archiveListData{Path: arch.Path(), Entries: entries},
				Hints: hints,
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list (0 = all)")
	return cmd
}
