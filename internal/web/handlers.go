package web

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mizutama/pochi/internal/engine"
	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
)

// maxImportBytes caps import uploads.
const maxImportBytes = 4 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	engine   *engine.Engine
	renderer *Renderer
}

// HandleList handles GET /snippets — the main snippet grid, plus the
// merge decision banner when a reconciliation session is open.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.engine.Snippets()
	views := make([]SnippetView, len(items))
	for i, s := range items {
		views[i] = snippetView(s)
	}

	data := ListPageData{
		PageData: PageData{
			Title:   "Snippets",
			Version: h.renderer.version,
		},
		Items:      views,
		Colors:     snippet.Colors,
		Syncing:    h.engine.IsSyncing(),
		NeedsMerge: h.engine.NeedsMergeDecision(),
	}
	if data.NeedsMerge {
		local, cloud := h.engine.MergeSnapshots()
		data.LocalCount = len(local)
		data.CloudCount = len(cloud)
	}

	h.renderer.renderPage(w, "list", data)
}

// HandleAdd handles POST /snippets — create a snippet from form input.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form data"))
		return
	}
	label := r.PostFormValue("label")
	content := r.PostFormValue("content")
	if label == "" || content == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("label and content are required"))
		return
	}
	color := r.PostFormValue("color")
	if color == "" {
		color = snippet.ColorBlue
	}

	if _, err := h.engine.AddSnippet(label, content, color); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/snippets", http.StatusSeeOther)
}

// HandleUpdate handles POST /snippets/{id} — edit an existing snippet.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form data"))
		return
	}
	id := r.PathValue("id")
	label := r.PostFormValue("label")
	content := r.PostFormValue("content")
	if label == "" || content == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("label and content are required"))
		return
	}

	h.engine.UpdateSnippet(id, label, content, r.PostFormValue("color"))
	http.Redirect(w, r, "/snippets", http.StatusSeeOther)
}

// HandleDelete handles POST /snippets/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.engine.DeleteSnippet(r.PathValue("id"))
	http.Redirect(w, r, "/snippets", http.StatusSeeOther)
}

// HandleExport handles GET /snippets/export — download the collection
// as a JSON backup file.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.ExportSnippets()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	filename := fmt.Sprintf("pochi_backup_%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// HandleImport handles POST /snippets/import — replace the collection
// from an uploaded JSON backup.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed upload"))
		return
	}
	file, _, err := r.FormFile("backup")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("backup file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	if err := h.engine.ImportSnippets(data); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/snippets", http.StatusSeeOther)
}

// HandleMerge handles POST /merge — the user's decision for an open
// reconciliation session. "dismiss" silently adopts the cloud copy.
func (h *Handlers) HandleMerge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form data"))
		return
	}

	option := r.PostFormValue("option")
	if option == "dismiss" {
		h.engine.DismissMerge()
		http.Redirect(w, r, "/snippets", http.StatusSeeOther)
		return
	}

	if err := h.engine.ResolveMerge(r.Context(), engine.MergeOption(option)); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/snippets", http.StatusSeeOther)
}
