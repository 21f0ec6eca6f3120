package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Template names.
const (
	TemplateAssigned = "activity_assigned"
	TemplateDone     = "activity_done"
)

const templates = `
{{define "activity_assigned"}}<div>
<p>{{t "Dear %s," .RecipientName}}</p>
<p>{{if .TeamOnly}}{{t "Your team %[3]s has been assigned the activity %[1]s on %[2]s." .ActivityName .ModelDescription .TeamName}}{{else}}{{t "You have been assigned to the activity %[1]s on %[2]s." .ActivityName .ModelDescription}}{{end}}</p>
{{if .ActorName}}<p>{{t "Assigned by %s" .ActorName}}</p>{{end}}
{{if not .Deadline.IsZero}}<p>{{t "Deadline: %s" (date .Deadline)}}</p>{{end}}
{{if .Note}}<div>{{.Note}}</div>{{end}}
<p><a href="{{.Link}}">{{t "View %s" .ModelDescription}}</a></p>
</div>{{end}}
{{define "activity_done"}}<div>
<p>{{t "Dear %s," .RecipientName}}</p>
<p>{{t "%[1]s marked the activity %[2]s on %[3]s as done." .ActorName .ActivityName .ModelDescription}}</p>
{{if .Feedback}}<p>{{t "Feedback:"}} {{.Feedback}}</p>{{end}}
<p><a href="{{.Link}}">{{t "View %s" .ModelDescription}}</a></p>
</div>{{end}}
`

// Data is what the notification templates see.
type Data struct {
	RecipientName    string
	ActorName        string
	ActivityName     string
	ModelDescription string
	RecordName       string
	TeamName         string
	TeamOnly         bool
	Link             string
	Deadline         time.Time
	Note             template.HTML
	Feedback         string
}

// Renderer renders notification bodies in the recipient's language.
//
// The active language is process state shared by all renders, so it is only
// changed inside withLocale, which holds mu for the whole scope.
type Renderer struct {
	mu       sync.Mutex
	tmpl     *template.Template
	cat      catalog.Catalog
	fallback language.Tag
	tag      language.Tag
	printer  *message.Printer
}

// NewRenderer parses the templates. defaultLang is used for recipients without
// a usable lang setting.
func NewRenderer(defaultLang string) (*Renderer, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, fmt.Errorf("build message catalog: %w", err)
	}
	r := &Renderer{cat: cat}
	r.fallback = matchLanguage(defaultLang, language.English)
	r.tag = r.fallback
	r.printer = message.NewPrinter(r.tag, message.Catalog(cat))

	funcs := template.FuncMap{
		"t":    func(key string, args ...any) string { return r.printer.Sprintf(key, args...) },
		"date": func(t time.Time) string { return t.Format(dateLayouts[r.tag]) },
	}
	r.tmpl, err = template.New("notify").Funcs(funcs).Parse(templates)
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	return r, nil
}

// Locale returns the language renders currently use outside any scope.
func (r *Renderer) Locale() language.Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tag
}

// Render renders name with data in lang.
func (r *Renderer) Render(lang, name string, data Data) (string, error) {
	var out string
	err := r.withLocale(lang, func() error {
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		out = buf.String()
		return nil
	})
	return out, err
}

// withLocale runs fn with lang active and restores the previous language
// afterwards, also when fn fails or panics.
func (r *Renderer) withLocale(lang string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevTag, prevPrinter := r.tag, r.printer
	defer func() {
		r.tag, r.printer = prevTag, prevPrinter
	}()

	r.tag = matchLanguage(lang, r.fallback)
	r.printer = message.NewPrinter(r.tag, message.Catalog(r.cat))
	return fn()
}
