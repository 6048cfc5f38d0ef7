package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"halo-cli/internal/export"
	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/radar"
	"halo-cli/internal/store"
	"halo-cli/internal/widget"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

// DefaultDatastarURL is the Datastar client bundle pages load by default.
const DefaultDatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

type ServerConfig struct {
	Addr     string
	Defaults []model.Default
	// Archive, when set, records every exported snapshot.
	Archive widget.Archiver
	Logger  *zap.Logger
	// ChartSize is the SVG viewBox edge in pixels.
	ChartSize int
	// DatastarURL is the client bundle; empty disables live updates.
	DatastarURL string
}

// Server serves one widget instance. Requests are serialized on mu, so every
// mutation is followed by its sync pass before another request can read.
type Server struct {
	mu   sync.Mutex
	cfg  ServerConfig
	tmpl *template.Template
	log  *zap.Logger
	hub  *resourceHub

	w      *widget.Widget
	notice string
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.DatastarURL = strings.TrimSpace(cfg.DatastarURL)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	srv := &Server{cfg: cfg, tmpl: tmpl, log: log.Named("web"), hub: newResourceHub()}
	w, err := widget.New(widget.Options{
		Defaults: cfg.Defaults,
		Charts:   radar.SVGFactory{Size: cfg.ChartSize},
		// Notices are raised during a mutation, with mu already held.
		Notifier: widget.NotifierFunc(func(msg string) { srv.notice = msg }),
		Archive:  cfg.Archive,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	srv.w = w
	return srv, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Close disposes the widget. Open event streams end with their requests.
func (s *Server) Close() {
	s.mu.Lock()
	s.w.Close()
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("POST /records", s.handleAdd)
	mux.HandleFunc("POST /records/{id}/name", s.handleRename)
	mux.HandleFunc("POST /records/{id}/stage", s.handleRestage)
	mux.HandleFunc("POST /records/{id}/note", s.handleAnnotate)
	mux.HandleFunc("POST /records/{id}/remove", s.handleRemove)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /", s.handleHome)
	return mux
}

func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	ref := strings.TrimSpace(r.Header.Get("Referer"))
	if ref != "" {
		http.Redirect(w, r, ref, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

func isDatastarRequest(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Datastar-Request")), "true")
}

// done answers a mutation. Datastar clients get their update over /events; plain
// form posts are sent back to the page.
func done(w http.ResponseWriter, r *http.Request) {
	if isDatastarRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectBack(w, r, "/")
}

// mutate applies fn under the lock and wakes the event streams. A notice left by
// the previous mutation is cleared first.
// The lock is released even when fn panics, since a development logger turns a
// stale id into a panic that net/http recovers from.
func (s *Server) mutate(fn func(w *widget.Widget)) {
	defer s.hub.broadcast()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = ""
	fn(s.w)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	vm := s.pageVMLocked()
	s.mu.Unlock()
	s.writeHTMLTemplate(w, "page.html", vm)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	text := s.w.Snapshot()
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text+"\n")
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	s.mutate(func(wd *widget.Widget) {
		if _, err := wd.Add(); err != nil && !errors.Is(err, store.ErrCapacityExceeded) {
			s.log.Warn("add", zap.Error(err))
		}
	})
	done(w, r)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	_ = r.ParseForm()
	name := r.Form.Get("name")
	s.mutate(func(wd *widget.Widget) { wd.Rename(id, name) })
	done(w, r)
}

func (s *Server) handleRestage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	_ = r.ParseForm()
	stage, err := model.ParseStage(r.Form.Get("stage"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mutate(func(wd *widget.Widget) { wd.Restage(id, stage) })
	done(w, r)
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	_ = r.ParseForm()
	note := r.Form.Get("note")
	s.mutate(func(wd *widget.Widget) { wd.Annotate(id, note) })
	done(w, r)
}

// formConfirmer accepts only when the form carried confirm=yes; the page asks the
// user before setting it.
func formConfirmer(r *http.Request) widget.Confirmer {
	ok := strings.EqualFold(strings.TrimSpace(r.Form.Get("confirm")), "yes")
	return widget.ConfirmFunc(func(string) bool { return ok })
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	_ = r.ParseForm()
	c := formConfirmer(r)
	s.mutate(func(wd *widget.Widget) { wd.Remove(id, c) })
	done(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	c := formConfirmer(r)
	s.mutate(func(wd *widget.Widget) { wd.Reset(c) })
	done(w, r)
}

// handleExport copies the snapshot to the requesting browser's clipboard. Datastar
// clients receive a script over SSE; plain posts get the snapshot as text.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if isDatastarRequest(r) {
		sse := datastar.NewSSE(w, r)
		cb := export.ClipboardFunc(func(text string) error {
			b, err := json.Marshal(text)
			if err != nil {
				return err
			}
			return sse.ExecuteScript("navigator.clipboard.writeText(" + string(b) + ")")
		})
		s.mutate(func(wd *widget.Widget) { _, _ = wd.ExportTo(r.Context(), cb) })
		return
	}

	var body string
	cb := export.ClipboardFunc(func(text string) error {
		body = text
		return nil
	})
	s.mutate(func(wd *widget.Widget) { _, _ = wd.ExportTo(r.Context(), cb) })
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body+"\n")
}

// handleEvents streams page patches. In-place edits only patch the output pane so
// the input being typed into keeps focus; the edited values reach other tabs via
// a script that skips the focused element. Structural changes patch the whole main.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ch, cancel := s.hub.subscribe()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	// Catch up with anything that changed between page load and subscription.
	rebuilt := -1
	send := func() {
		p, err := s.renderPatch(rebuilt)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return
		}
		rebuilt = p.rebuilt
		_ = sse.PatchElements(p.html, datastar.WithSelector(p.selector), datastar.WithMode(datastar.ElementPatchModeOuter))
		if p.values != "" {
			_ = sse.ExecuteScript(p.values)
		}
		_ = sse.MarshalAndPatchSignals(map[string]any{"haloVersion": p.version})
	}
	send()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			send()
		}
	}
}

type patch struct {
	selector string
	html     string
	version  uint64
	rebuilt  int
	// values is a script that copies field values into inputs that were not
	// re-rendered. Empty when main is patched whole.
	values string
}

// syncValuesJS sets name, note and stage inputs from a map keyed by record id.
const syncValuesJS = `(function(f){for(const id in f){for(const k of ["name","note","stage"]){` +
	`const el=document.getElementById(k+"-"+id);` +
	`if(el&&el!==document.activeElement&&el.value!==f[id][k])el.value=f[id][k];}}})(%s)`

func (s *Server) renderPatch(lastRebuilt int) (patch, error) {
	s.mu.Lock()
	vm := s.pageVMLocked()
	rebuilt := s.w.FieldsRebuilt()
	s.mu.Unlock()

	p := patch{version: vm.Version, rebuilt: rebuilt}
	var err error
	if rebuilt != lastRebuilt {
		p.selector = "#halo-main"
		p.html, err = s.renderTemplate("halo_main", vm)
		return p, err
	}
	p.selector = "#halo-output"
	if p.html, err = s.renderTemplate("halo_output", vm.Output); err != nil {
		return p, err
	}
	p.values, err = fieldValuesScript(vm.Rows)
	return p, err
}

// fieldValuesScript renders syncValuesJS for rows. json.Marshal escapes <, >
// and &, so user text cannot close the script element.
func fieldValuesScript(rows []rowVM) (string, error) {
	values := make(map[string]map[string]string, len(rows))
	for _, row := range rows {
		values[row.ID] = map[string]string{
			"name":  row.Name,
			"note":  row.Note,
			"stage": strconv.Itoa(int(row.Stage)),
		}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(syncValuesJS, b), nil
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

type stageVM struct {
	Value model.Stage
	Label string
}

type rowVM struct {
	ID              string
	Number          int
	Name            string
	NamePlaceholder string
	Stage           model.Stage
	Note            string
	Placeholder     string
	RemovePrompt    string
}

type outputVM struct {
	Notice    string
	Counts    string
	Chart     template.HTML
	ChartErr  string
	Summary   []template.HTML
	EmptyHint string
}

type pageVM struct {
	Version     uint64
	DatastarURL string
	Rows        []rowVM
	Stages      []stageVM
	ResetPrompt string
	Output      outputVM
}

func (s *Server) pageVMLocked() pageVM {
	proj := s.w.Projection()
	vm := pageVM{
		Version:     s.w.Version(),
		DatastarURL: s.cfg.DatastarURL,
		ResetPrompt: widget.ResetPrompt,
		Output: outputVM{
			Notice:    s.notice,
			Counts:    proj.Counts.String(),
			EmptyHint: present.EmptySummaryHint,
		},
	}
	for _, st := range model.Stages {
		vm.Stages = append(vm.Stages, stageVM{Value: st, Label: st.Label()})
	}
	for _, f := range proj.Fields {
		vm.Rows = append(vm.Rows, rowVM{
			ID:              f.ID,
			Number:          f.Position + 1,
			Name:            f.Name,
			NamePlaceholder: "e.g., Customers & Community",
			Stage:           f.Stage,
			Note:            f.Note,
			Placeholder:     f.Placeholder,
			RemovePrompt:    widget.RemovePrompt(model.Record{Name: f.Name}),
		})
	}
	for _, l := range proj.Summary {
		// Name and note are escaped by SummaryLine.HTML.
		vm.Output.Summary = append(vm.Output.Summary, template.HTML(l.HTML()))
	}
	switch c := s.w.Chart().(type) {
	case *radar.SVG:
		vm.Output.Chart = c.HTML()
	default:
		if err := s.w.ChartErr(); err != nil {
			vm.Output.ChartErr = err.Error()
		}
	}
	return vm
}

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}
