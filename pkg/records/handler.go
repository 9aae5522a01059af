package records

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
)

// DefaultMaxUpload bounds attachment request bodies.
const DefaultMaxUpload int64 = 10 << 20

// AttachmentSource serves payloads previously stored through a sink.
type AttachmentSource interface {
	Attachment(url string) (model.Upload, bool)
}

// Logger receives request-level failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Handler serves a Store over HTTP.
type Handler struct {
	store     Store
	lookup    references.Lookup
	sink      AttachmentSink
	source    AttachmentSource
	logger    Logger
	maxUpload int64
	router    chi.Router
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithLookup sets the search backend. Stores implementing references.Lookup
// are used automatically.
func WithLookup(lookup references.Lookup) HandlerOption {
	return func(h *Handler) {
		if lookup != nil {
			h.lookup = lookup
		}
	}
}

// WithSink sets the attachment sink. Stores implementing AttachmentSink are
// used automatically.
func WithSink(sink AttachmentSink) HandlerOption {
	return func(h *Handler) {
		if sink != nil {
			h.sink = sink
		}
	}
}

// WithHandlerLogger routes request failures to logger.
func WithHandlerLogger(logger Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxUpload bounds attachment uploads in bytes.
func WithMaxUpload(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// NewHandler builds the router:
//
//	GET  /records/{category}          list (optionally ?q=)
//	POST /records/{category}          create
//	GET  /records/{category}/{id}     read
//	PUT  /records/{category}/{id}     update
//	GET  /search?q=&type=             reference lookup
//	POST /attachments/{category}/{id}/{field}
//	GET  /attachments/{category}/{id}/{file}
func NewHandler(store Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store, logger: log.Default(), maxUpload: DefaultMaxUpload}
	if lookup, ok := store.(references.Lookup); ok {
		h.lookup = lookup
	}
	if sink, ok := store.(AttachmentSink); ok {
		h.sink = sink
	}
	if source, ok := store.(AttachmentSource); ok {
		h.source = source
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	r := chi.NewRouter()
	r.Route("/records/{category}", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleRead)
		r.Put("/{id}", h.handleUpdate)
	})
	r.Get("/search", h.handleSearch)
	r.Post("/attachments/{category}/{id}/{field}", h.handleUpload)
	r.Get("/attachments/{category}/{id}/{field}", h.handleAttachment)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Hits []references.Hit `json:"hits"`
}

// UploadResponse is the body of a successful attachment upload.
type UploadResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	result := h.store.Read(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "id"))
	h.writeResult(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeData(w, r)
	if !ok {
		return
	}
	result := h.store.Create(r.Context(), chi.URLParam(r, "category"), data)
	h.writeResult(w, http.StatusCreated, result)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeData(w, r)
	if !ok {
		return
	}
	result := h.store.Update(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "id"), data)
	h.writeResult(w, http.StatusOK, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("q"), chi.URLParam(r, "category"))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.search(w, r, query.Get("q"), query.Get("type"))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, query, typeFilter string) {
	if h.lookup == nil {
		h.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "search is not configured", Code: CodeInternal})
		return
	}
	hits, err := h.lookup.Search(r.Context(), query, typeFilter)
	if err != nil {
		h.logger.Printf("records: search %q: %v", query, err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed", Code: CodeInternal})
		return
	}
	if hits == nil {
		hits = []references.Hit{}
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{Hits: hits})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.sink == nil {
		h.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "attachments are not configured", Code: CodeInternal})
		return
	}
	upload, err := h.readUpload(w, r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: CodeInvalid})
		return
	}
	url, err := h.sink.Put(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "id"), chi.URLParam(r, "field"), upload)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrInvalidID) {
			status = http.StatusBadRequest
		}
		h.writeJSON(w, status, errorResponse{Error: err.Error(), Code: Fail(err).Code})
		return
	}
	h.writeJSON(w, http.StatusCreated, UploadResponse{URL: url})
}

func (h *Handler) handleAttachment(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		http.NotFound(w, r)
		return
	}
	url := "/attachments/" + chi.URLParam(r, "category") + "/" + chi.URLParam(r, "id") + "/" + chi.URLParam(r, "field")
	upload, ok := h.source.Attachment(url)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if upload.ContentType != "" {
		w.Header().Set("Content-Type", upload.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(upload.Data); err != nil {
		h.logger.Printf("records: write attachment: %v", err)
	}
}

// readUpload accepts either a multipart form with a "file" part or a raw
// body described by Content-Type and the filename query parameter.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (model.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return model.Upload{}, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return model.Upload{}, err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return model.Upload{}, err
		}
		return model.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return model.Upload{}, err
	}
	if len(data) == 0 {
		return model.Upload{}, errors.New("empty upload")
	}
	return model.Upload{
		Filename:    path.Base(strings.TrimSpace(r.URL.Query().Get("filename"))),
		ContentType: mediaType,
		Data:        data,
	}, nil
}

func (h *Handler) decodeData(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	defer r.Body.Close()
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeJSON(w, http.StatusBadRequest, Result{Error: "invalid JSON body: " + err.Error(), Code: CodeInvalid})
		return nil, false
	}
	return data, true
}

func (h *Handler) writeResult(w http.ResponseWriter, okStatus int, result Result) {
	status := okStatus
	if !result.Success {
		switch result.Code {
		case CodeNotFound:
			status = http.StatusNotFound
		case CodeInvalid:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	h.writeJSON(w, status, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("records: encode response: %v", err)
	}
}
