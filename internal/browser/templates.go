package browser

import (
	"bytes"
	"html/template"

	"github.com/cvenhancer/core/internal/domain"
)

// templateHTML holds the three built-in layouts (§4.C5.4). Each is a
// complete standalone HTML document so chromedp can print it directly
// without needing any external stylesheet fetch.
var templateHTML = map[domain.TemplateID]string{
	domain.TemplateModern: `<!doctype html><html><head><meta charset="utf-8">
<style>
body{font-family:{{.FontFamily}},sans-serif;font-size:{{.FontSize}}px;line-height:{{.LineHeight}};color:#1a1a1a;margin:40px}
h1{color:{{.PrimaryColor}};margin-bottom:0}
h2{color:{{.PrimaryColor}};border-bottom:2px solid {{.PrimaryColor}};padding-bottom:4px;margin-top:24px}
.contact{color:#555;margin-bottom:16px}
.entry{margin-bottom:12px}
.entry-title{font-weight:bold}
.entry-meta{color:#666;font-size:0.9em}
ul{margin:4px 0}
</style></head><body>
<h1>{{.Content.Personal.Name}}</h1>
<div class="contact">{{.Content.Personal.Email}} · {{.Content.Personal.Phone}} · {{.Content.Personal.Location}}</div>
{{if .Content.Summary}}<p>{{.Content.Summary}}</p>{{end}}
{{if .Content.Experience}}<h2>Experience</h2>
{{range .Content.Experience}}<div class="entry"><div class="entry-title">{{.Title}} — {{.Company}}</div>
<div class="entry-meta">{{.StartDate}} – {{.EndDate}}</div><p>{{.Description}}</p>
<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul></div>{{end}}{{end}}
{{if .Content.Education}}<h2>Education</h2>
{{range .Content.Education}}<div class="entry"><div class="entry-title">{{.Degree}}, {{.Institution}}</div>
<div class="entry-meta">{{.StartDate}} – {{.EndDate}}</div></div>{{end}}{{end}}
{{if .Content.Skills}}<h2>Skills</h2><p>{{join .Content.Skills ", "}}</p>{{end}}
{{if .Content.Projects}}<h2>Projects</h2>
{{range .Content.Projects}}<div class="entry"><div class="entry-title">{{.Name}}</div><p>{{.Description}}</p></div>{{end}}{{end}}
{{if .Content.Certifications}}<h2>Certifications</h2>
<ul>{{range .Content.Certifications}}<li>{{.Name}} — {{.Issuer}} ({{.Date}})</li>{{end}}</ul>{{end}}
{{if .Content.Languages}}<h2>Languages</h2>
<ul>{{range .Content.Languages}}<li>{{.Name}} — {{.Proficiency}}</li>{{end}}</ul>{{end}}
</body></html>`,

	domain.TemplateProfessional: `<!doctype html><html><head><meta charset="utf-8">
<style>
body{font-family:Georgia,serif;font-size:{{.FontSize}}px;line-height:{{.LineHeight}};color:#222;margin:48px}
h1{text-transform:uppercase;letter-spacing:2px;border-bottom:1px solid #222;padding-bottom:8px}
h2{text-transform:uppercase;font-size:0.95em;letter-spacing:1px;color:#444;margin-top:20px}
</style></head><body>
<h1>{{.Content.Personal.Name}}</h1>
<p>{{.Content.Personal.Email}} | {{.Content.Personal.Phone}} | {{.Content.Personal.Location}}</p>
{{if .Content.Summary}}<p>{{.Content.Summary}}</p>{{end}}
{{if .Content.Experience}}<h2>Professional Experience</h2>
{{range .Content.Experience}}<p><strong>{{.Title}}</strong>, {{.Company}} ({{.StartDate}}–{{.EndDate}})<br>{{.Description}}</p>{{end}}{{end}}
{{if .Content.Education}}<h2>Education</h2>
{{range .Content.Education}}<p>{{.Degree}}, {{.Institution}} ({{.StartDate}}–{{.EndDate}})</p>{{end}}{{end}}
{{if .Content.Skills}}<h2>Skills</h2><p>{{join .Content.Skills ", "}}</p>{{end}}
</body></html>`,

	domain.TemplateMinimal: `<!doctype html><html><head><meta charset="utf-8">
<style>body{font-family:monospace;font-size:{{.FontSize}}px;line-height:{{.LineHeight}};margin:32px}
h2{margin-top:16px;border-bottom:1px solid #000}</style></head><body>
<h1>{{.Content.Personal.Name}}</h1>
<p>{{.Content.Personal.Email}} {{.Content.Personal.Phone}}</p>
{{if .Content.Summary}}<p>{{.Content.Summary}}</p>{{end}}
{{if .Content.Experience}}<h2>Experience</h2>{{range .Content.Experience}}<p>{{.Title}}, {{.Company}} ({{.StartDate}}-{{.EndDate}})</p>{{end}}{{end}}
{{if .Content.Education}}<h2>Education</h2>{{range .Content.Education}}<p>{{.Degree}}, {{.Institution}}</p>{{end}}{{end}}
{{if .Content.Skills}}<h2>Skills</h2><p>{{join .Content.Skills ", "}}</p>{{end}}
</body></html>`,
}

type templateVars struct {
	Content      domain.Content
	PrimaryColor string
	FontFamily   string
	FontSize     int
	LineHeight   float64
}

var funcs = template.FuncMap{
	"join": func(items []string, sep string) string {
		out := ""
		for i, s := range items {
			if i > 0 {
				out += sep
			}
			out += s
		}
		return out
	},
}

// renderHTML fills tmplID's layout with content and custom, defaulting any
// unset Customization field to the template's own baseline look.
func renderHTML(tmplID domain.TemplateID, content domain.Content, custom domain.Customization) (string, error) {
	raw, ok := templateHTML[tmplID]
	if !ok {
		raw = templateHTML[domain.TemplateModern]
	}
	t, err := template.New(string(tmplID)).Funcs(funcs).Parse(raw)
	if err != nil {
		return "", err
	}
	vars := templateVars{
		Content:      content,
		PrimaryColor: firstNonEmpty(custom.PrimaryColor, "#2563eb"),
		FontFamily:   firstNonEmpty(custom.FontFamily, "Helvetica"),
		FontSize:     firstNonZero(custom.FontSize, 14),
		LineHeight:   firstNonZeroF(custom.LineHeight, 1.5),
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func firstNonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstNonZero(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func firstNonZeroF(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
