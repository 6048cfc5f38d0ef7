package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		variant string
		want    int
	}{
		{variant: "", want: 6},
		{variant: "six", want: 6},
		{variant: "SIX", want: 6},
		{variant: "ten", want: 10},
		{variant: "10", want: 10},
	}
	for _, tt := range tests {
		got, err := Defaults(tt.variant)
		if err != nil {
			t.Fatalf("Defaults(%q): %v", tt.variant, err)
		}
		if len(got) != tt.want {
			t.Fatalf("Defaults(%q): expected %d; got %d", tt.variant, tt.want, len(got))
		}
	}
	if _, err := Defaults("eleven"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a, _ := Defaults(VariantSix)
	a[0].Name = "mutated"
	b, _ := Defaults(VariantSix)
	if b[0].Name != "Customers & Community" {
		t.Fatalf("expected built-in defaults to be immutable; got %q", b[0].Name)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefaultsFile_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "yaml list", file: "d.yaml", body: "- name: Market\n  placeholder: reach\n- name: Team\n"},
		{name: "yaml doc", file: "d.yml", body: "defaults:\n  - name: Market\n    placeholder: reach\n  - name: Team\n"},
		{name: "json list", file: "d.json", body: `[{"name":"Market","placeholder":"reach"},{"name":"Team"}]`},
		{name: "json doc", file: "d.json", body: `{"defaults":[{"name":"Market","placeholder":"reach"},{"name":" Team "}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := LoadDefaultsFile(writeFile(t, tt.file, tt.body))
			if err != nil {
				t.Fatalf("LoadDefaultsFile: %v", err)
			}
			if len(got) != 2 || got[0].Name != "Market" || got[0].Placeholder != "reach" || got[1].Name != "Team" {
				t.Fatalf("unexpected defaults: %+v", got)
			}
		})
	}
}

func TestLoadDefaultsFile_Validation(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 11; i++ {
		b.WriteString("- name: X\n")
	}
	if _, err := LoadDefaultsFile(writeFile(t, "many.yaml", b.String())); err == nil {
		t.Fatalf("expected too-many error")
	}
	if _, err := LoadDefaultsFile(writeFile(t, "blank.yaml", "- name: ''\n")); err == nil {
		t.Fatalf("expected missing name error")
	}
	if _, err := LoadDefaultsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestOptions_Resolve(t *testing.T) {
	t.Parallel()

	got, err := Options{Variant: "ten"}.Resolve()
	if err != nil || len(got) != 10 {
		t.Fatalf("expected ten defaults; got %d (%v)", len(got), err)
	}
	p := writeFile(t, "d.yaml", "- name: Solo\n")
	got, err = Options{Variant: "ten", DefaultsPath: p}.Resolve()
	if err != nil || len(got) != 1 || got[0].Name != "Solo" {
		t.Fatalf("expected file to win; got %+v (%v)", got, err)
	}
}
