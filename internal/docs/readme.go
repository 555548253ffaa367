// Package docs renders the command reference that goes into README.md.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"slashroute/internal/command"
	"slashroute/pkg/slash"
)

// Section is one category of the reference.
type Section struct {
	Category string
	Entries  []Entry
}

// Entry documents one invocable path.
type Entry struct {
	Path        string
	Description string
	Options     []Option
}

type Option struct {
	Name        string
	Kind        string
	Description string
	Required    bool
	Choices     []string
}

// Sections collects the registry's commands grouped by category.
func Sections(reg *command.Registry) []Section {
	byCat := map[string][]Entry{}
	for _, cmd := range reg.All() {
		byCat[cmd.Category()] = append(byCat[cmd.Category()], entries(cmd.Declaration())...)
	}
	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	slices.SortFunc(cats, command.CompareCategories)

	out := make([]Section, 0, len(cats))
	for _, cat := range cats {
		es := byCat[cat]
		slices.SortFunc(es, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
		out = append(out, Section{Category: cat, Entries: es})
	}
	return out
}

func entries(c slash.Command) []Entry {
	root := "/" + wire(c.Ident, c.Name)
	if len(c.SubCommands) == 0 {
		return []Entry{entry(root, c.Description, c.Options)}
	}
	var out []Entry
	for _, sc := range c.SubCommands {
		sub := root + " " + wire(sc.Ident, sc.Name)
		if len(sc.SubCommands) == 0 {
			out = append(out, entry(sub, sc.Description, sc.Options))
		}
		for _, ssc := range sc.SubCommands {
			out = append(out, entry(sub+" "+wire(ssc.Ident, ssc.Name), ssc.Description, ssc.Options))
		}
	}
	return out
}

func entry(path, desc string, opts []slash.Option) Entry {
	e := Entry{Path: path, Description: desc}
	for _, o := range opts {
		doc := Option{
			Name:        wire(o.Ident, o.Name),
			Kind:        o.Kind.String(),
			Description: o.Description,
			Required:    !o.Optional && !o.Default,
		}
		if o.Choices != nil {
			for _, ch := range o.Choices.Choices() {
				doc.Choices = append(doc.Choices, ch.Name)
			}
		}
		e.Options = append(e.Options, doc)
	}
	return e
}

func wire(ident, name string) string {
	if name != "" {
		return name
	}
	return strings.ToLower(ident)
}

var sectionTmpl = template.Must(template.New("sections").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`{{range $i, $s := .}}{{if $i}}
{{end}}### {{$s.Category}}
{{range $s.Entries}}
- **{{.Path}}** - {{.Description}}
{{- range .Options}}
  - ` + "`{{.Name}}`" + ` ({{.Kind}}{{if not .Required}}, optional{{end}}): {{.Description}}{{if .Choices}} [{{join .Choices ", "}}]{{end}}
{{- end}}
{{- end}}
{{end}}`))

// Render writes the sections as Markdown.
func Render(w io.Writer, sections []Section) error {
	return sectionTmpl.Execute(w, sections)
}

// UpdateReadme executes the template at tmplPath with the rendered reference
// as {{.CommandSections}} and writes the result to outPath.
func UpdateReadme(reg *command.Registry, tmplPath, outPath string) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return err
	}
	var sections bytes.Buffer
	if err := Render(&sections, Sections(reg)); err != nil {
		return fmt.Errorf("render commands: %w", err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, map[string]any{"CommandSections": sections.String()}); err != nil {
		return fmt.Errorf("execute %s: %w", tmplPath, err)
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
