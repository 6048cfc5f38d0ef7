package cli

import (
	"strings"

	"halo-cli/internal/config"
	"halo-cli/internal/model"

	"github.com/spf13/cobra"
)

type defaultsOutput struct {
	Data  defaultsData `json:"data"`
	Hints []string     `json:"_hints"`
}

type defaultsData struct {
	Source    string          `json:"source"`
	Functions []model.Default `json:"functions"`
}

func (o defaultsOutput) Text() string {
	var b strings.Builder
	for i, d := range o.Data.Functions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Name)
		if d.Placeholder != "" {
			b.WriteString("\t" + d.Placeholder)
		}
	}
	return b.String()
}

func newDefaultsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the default functions a new assessment starts with",
		Example: strings.TrimSpace(`
halo defaults
halo --variant ten defaults --format edn
halo --defaults ./functions.yaml defaults --format text
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := loadDefaults(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			source := "variant:" + strings.ToLower(strings.TrimSpace(app.Variant))
			if p := strings.TrimSpace(app.DefaultsPath); p != "" {
				source = "file:" + p
			}
			hints := []string{}
			if strings.TrimSpace(app.DefaultsPath) == "" {
				for _, v := range config.Variants() {
					hints = append(hints, "halo --variant "+v+" defaults")
				}
			}
			return writeOut(cmd, app, defaultsOutput{
				Data:  defaultsData{Source: source, Functions: defaults},
				Hints: hints,
			})
		},
	}
	return cmd
}
