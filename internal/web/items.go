package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/N474NR4/UCHI-Subaru/internal/imaging"
	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

// Flash messages, keyed by the msg query parameter set after a redirect.
var flashes = map[string]string{
	"inserted": "Modelo inserido com sucesso!",
	"updated":  "Modelo alterado com sucesso!",
	"deleted":  "Modelo deletado com sucesso!",
	"cleared":  "Banco limpo!",
}

// itemsPage is the data for items.html.
type itemsPage struct {
	PageData
	Items []model.Item
	Query string

	// Modal state.
	ModalOpen  bool
	ModalTitle string
	Editing    bool
	Form       model.Item
	// Numeric fields are shown as text so a rejected value is echoed back.
	YearInput  string
	PriceInput string
}

// fillForm shows a stored item in the modal.
func (p *itemsPage) fillForm(item model.Item) {
	p.Form = item
	p.YearInput = strconv.Itoa(item.Year)
	p.PriceInput = strconv.FormatFloat(item.Price, 'f', 2, 64)
}

// ItemsPage handles GET /items.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	page := s.newItemsPage(r)
	s.render(w, r, http.StatusOK, page)
}

// ItemNewPage handles GET /items/new. Any edit in progress is abandoned.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	s.Store.Session().Cancel()

	page := s.newItemsPage(r)
	page.ModalOpen = true
	page.ModalTitle = "Inserir Novo Modelo"
	s.render(w, r, http.StatusOK, page)
}

// ItemEditPage handles GET /items/{id}/edit.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := s.Store.Session().Begin(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to load item for edit", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := s.newItemsPage(r)
	page.ModalOpen = true
	page.ModalTitle = "Alterar Modelo"
	page.Editing = true
	page.fillForm(item)
	s.render(w, r, http.StatusOK, page)
}

// ItemSubmit handles POST /items. It creates a new item, or updates the
// one loaded by ItemEditPage.
func (s *Server) ItemSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "file too large or invalid form", http.StatusBadRequest)
		return
	}

	item, problem := parseItemForm(r)
	if problem != "" {
		s.rerenderForm(w, r, item, problem)
		return
	}

	uploaded, err := s.saveUpload(r)
	if err != nil {
		slog.Warn("rejected image upload", "error", err)
		s.rerenderForm(w, r, item, "Imagem inválida. Use um arquivo JPEG ou PNG.")
		return
	}
	if uploaded != "" {
		item.ImageRef = &uploaded
	}

	session := s.Store.Session()
	editingID, editing := session.Editing()

	var previous *string
	if editing {
		if old, err := s.Store.Get(r.Context(), editingID); err == nil {
			previous = old.ImageRef
		}
	}

	id, err := session.Submit(r.Context(), item)
	if err != nil {
		s.discardImage(uploaded)
		slog.Error("failed to save item", "name", item.Name, "error", err)
		s.rerenderForm(w, r, item, "Não foi possível salvar o modelo.")
		return
	}

	msg := "inserted"
	if editing {
		msg = "updated"
		if previous != nil && model.TextValue(previous) != model.TextValue(item.ImageRef) {
			s.discardImage(*previous)
		}
	}
	slog.Info("item saved", "id", id, "name", item.Name, "action", msg)
	redirectToList(w, r, msg)
}

// ItemCancel handles POST /items/cancel, sent when the modal is closed.
func (s *Server) ItemCancel(w http.ResponseWriter, r *http.Request) {
	s.Store.Session().Cancel()
	redirectToList(w, r, "")
}

// ItemDelete handles POST /items/{id}/delete.
func (s *Server) ItemDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := s.Store.Get(r.Context(), id)
	if err == nil {
		err = s.Store.Delete(r.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to delete item", "id", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	if item.ImageRef != nil {
		s.discardImage(*item.ImageRef)
	}
	slog.Info("item deleted", "id", id, "name", item.Name)
	redirectToList(w, r, "deleted")
}

// ItemsClear handles POST /items/clear.
func (s *Server) ItemsClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ClearAll(r.Context()); err != nil {
		slog.Error("failed to clear items", "error", err)
		http.Error(w, "failed to clear", http.StatusInternalServerError)
		return
	}

	slog.Info("all items cleared", "backend", s.Store.Backend())
	http.Redirect(w, r, "/items?msg=cleared", http.StatusSeeOther)
}

// newItemsPage loads the filtered list for the current query.
func (s *Server) newItemsPage(r *http.Request) *itemsPage {
	query := r.FormValue("q")
	page := &itemsPage{
		PageData: PageData{
			Title:   "Modelos Subaru",
			Backend: s.Store.Backend(),
			Success: flashes[r.URL.Query().Get("msg")],
		},
		Query: query,
	}

	items, err := s.Store.Search(r.Context(), query)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		page.Error = "Não foi possível carregar os modelos."
	}
	page.Items = items
	return page
}

// rerenderForm shows the modal again with the submitted values and an error.
func (s *Server) rerenderForm(w http.ResponseWriter, r *http.Request, item model.Item, message string) {
	page := s.newItemsPage(r)
	_, page.Editing = s.Store.Session().Editing()
	page.ModalOpen = true
	page.ModalTitle = "Inserir Novo Modelo"
	if page.Editing {
		page.ModalTitle = "Alterar Modelo"
	}
	page.Form = item
	page.YearInput = r.FormValue("year")
	page.PriceInput = r.FormValue("price")
	page.Error = message
	s.render(w, r, http.StatusUnprocessableEntity, page)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page *itemsPage) {
	s.Templates.Render(w, status, "items.html", page)
}

// saveUpload stores the optional "image" file and returns its reference.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	if s.Images == nil || r.MultipartForm == nil {
		return "", nil
	}
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	ref, err := s.Images.Save(file)
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Server) discardImage(ref string) {
	if s.Images == nil || ref == "" {
		return
	}
	if err := s.Images.Remove(ref); err != nil {
		slog.Warn("failed to remove image", "ref", ref, "error", err)
	}
}

// parseItemForm reads the item fields and returns a message for the user
// when they are invalid. The item carries whatever was parsed so the form
// can be shown again.
func parseItemForm(r *http.Request) (model.Item, string) {
	item := model.Item{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: model.OptionalText(r.FormValue("description")),
		ImageRef:    model.OptionalText(strings.TrimSpace(r.FormValue("image_url"))),
	}

	if item.Name == "" {
		return item, "Informe o nome do modelo."
	}

	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		return item, "Ano inválido."
	}
	item.Year = year

	// Accept both 120000.50 and 120000,50.
	price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(r.FormValue("price")), ",", "."), 64)
	if err != nil {
		return item, "Preço inválido."
	}
	item.Price = price

	return item, ""
}

// redirectToList returns to the list, keeping the search query.
func redirectToList(w http.ResponseWriter, r *http.Request, msg string) {
	v := url.Values{}
	if q := r.FormValue("q"); q != "" {
		v.Set("q", q)
	}
	if msg != "" {
		v.Set("msg", msg)
	}
	target := "/items"
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
