package cli

import (
	"context"
	"strconv"
	"strings"

	"halo-cli/internal/export"
	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/radar"
	"halo-cli/internal/widget"

	"github.com/spf13/cobra"
)

type snapshotOutput struct {
	Data  snapshotData `json:"data"`
	Hints []string     `json:"_hints"`
}

type snapshotData struct {
	Text    string              `json:"text"`
	Records []model.Record      `json:"records"`
	Counts  present.StageCounts `json:"counts"`
	Chart   string              `json:"chart,omitempty"`
	Copied  bool                `json:"copied"`
	Notices []string            `json:"notices"`
}

func (o snapshotOutput) Text() string {
	if o.Data.Chart == "" {
		return o.Data.Text
	}
	return o.Data.Chart + "\n\n" + o.Data.Text
}

func newSnapshotCmd(app *App) *cobra.Command {
	var adds, renames, stages, notes []string
	var copyOut, chart bool
	var chartWidth, chartHeight int

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build an assessment from flags and print its snapshot",
		Long: strings.TrimSpace(`
Build an assessment from the default functions, apply the edits given as
flags, and print the snapshot.

Functions are referenced by name (case-insensitive) or by position (#1, #2, ...).
Edits apply in order: --add, then --rename, --stage and --note.
`),
		Example: strings.TrimSpace(`
halo snapshot --stage "Sales & Growth=3" --note "Sales & Growth=new channel live" --format text
halo snapshot --add "Brand" --stage "Brand=advancing" --chart --format text
halo snapshot --rename "#1=Clients" --copy
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := loadDefaults(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			log, err := appLogger(app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var notices []string
			opts := widget.Options{
				Defaults: defaults,
				Charts:   radar.TerminalFactory{Width: chartWidth, Height: chartHeight, Plain: true},
				Notifier: widget.NotifierFunc(func(msg string) { notices = append(notices, msg) }),
				Logger:   log,
			}
			if copyOut {
				opts.Clipboard = export.SystemClipboard{Terminal: cmd.ErrOrStderr()}
				arch, err := openArchive(ctx, app)
				if err != nil {
					return writeErr(cmd, err)
				}
				if arch != nil {
					defer arch.Close()
					opts.Archive = arch
				}
			}
			w, err := widget.New(opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer w.Close()

			if err := applySnapshotEdits(w, adds, renames, stages, notes); err != nil {
				return writeErr(cmd, err)
			}

			out := snapshotData{
				Text:    w.Snapshot(),
				Records: w.Records(),
				Counts:  w.Projection().Counts,
			}
			if chart {
				if t, ok := w.Chart().(*radar.Terminal); ok {
					out.Chart = t.String()
				}
			}
			hints := []string{}
			if copyOut {
				_, err := w.Export(ctx)
				out.Copied = err == nil
			} else {
				hints = append(hints, "add --copy to copy the snapshot to the clipboard")
			}
			out.Notices = append([]string{}, notices...)
			return writeOut(cmd, app, snapshotOutput{Data: out, Hints: hints})
		},
	}

	cmd.Flags().StringArrayVar(&adds, "add", nil, "Append a function with this name (repeatable)")
	cmd.Flags().StringArrayVar(&renames, "rename", nil, "Rename a function: <function>=<new name> (repeatable)")
	cmd.Flags().StringArrayVar(&stages, "stage", nil, "Set a stage: <function>=<1|2|3|early|advancing|established> (repeatable)")
	cmd.Flags().StringArrayVar(&notes, "note", nil, "Set a note: <function>=<text> (repeatable)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the snapshot to the clipboard (and archive it when --archive is set)")
	cmd.Flags().BoolVar(&chart, "chart", false, "Include a plain-text radar chart")
	cmd.Flags().IntVar(&chartWidth, "chart-width", 60, "Chart width in cells")
	cmd.Flags().IntVar(&chartHeight, "chart-height", 21, "Chart height in cells")
	return cmd
}

func applySnapshotEdits(w *widget.Widget, adds, renames, stages, notes []string) error {
	for _, name := range adds {
		rec, err := w.Add()
		if err != nil {
			return err
		}
		w.Rename(rec.ID, strings.TrimSpace(name))
	}
	for _, v := range renames {
		ref, name, ok := strings.Cut(v, "=")
		if !ok {
			return errFlagValue("rename", v, "<function>=<new name>")
		}
		id, err := lookupFunction(w, ref)
		if err != nil {
			return err
		}
		w.Rename(id, strings.TrimSpace(name))
	}
	for _, v := range stages {
		// Names may contain '='; the stage never does.
		i := strings.LastIndex(v, "=")
		if i < 0 {
			return errFlagValue("stage", v, "<function>=<stage>")
		}
		st, err := model.ParseStage(v[i+1:])
		if err != nil {
			return errFlagValue("stage", v, "<function>=<1|2|3|early|advancing|established>")
		}
		id, err := lookupFunction(w, v[:i])
		if err != nil {
			return err
		}
		w.Restage(id, st)
	}
	for _, v := range notes {
		ref, note, ok := strings.Cut(v, "=")
		if !ok {
			return errFlagValue("note", v, "<function>=<text>")
		}
		id, err := lookupFunction(w, ref)
		if err != nil {
			return err
		}
		w.Annotate(id, strings.TrimSpace(note))
	}
	return nil
}

// lookupFunction resolves a name (case-insensitive) or a 1-based "#N" position to
// a record id.
func lookupFunction(w *widget.Widget, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	recs := w.Records()
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(ref[1:])
		if err == nil && n >= 1 && n <= len(recs) {
			return recs[n-1].ID, nil
		}
		return "", errNotFound("function", ref)
	}
	for _, r := range recs {
		if strings.EqualFold(strings.TrimSpace(r.Name), ref) {
			return r.ID, nil
		}
	}
	return "", errNotFound("function", ref)
}
