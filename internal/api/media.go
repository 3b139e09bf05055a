package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/handlers"
	"github.com/gatehouse-io/gatehouse/pkg/routes"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
)

// mediaHandler exposes the blob store for submission images. Upload returns
// the storage key that a subsequent submission references as image_key.
type mediaHandler struct {
	store         storage.System
	logger        *slog.Logger
	maxUploadSize int64
}

func newMediaHandler(
	store storage.System,
	logger *slog.Logger,
	maxUploadSize int64,
) *mediaHandler {
	return &mediaHandler{
		store:         store,
		logger:        logger.With("handler", "media"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *mediaHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/media",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.upload},
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.remove},
		},
	}
}

func (h *mediaHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusRequestEntityTooLarge,
			fmt.Errorf("upload exceeds size limit: %w", err),
		)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest,
			fmt.Errorf("missing file field: %w", err),
		)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest,
			fmt.Errorf("unsupported content type %q", contentType),
		)
		return
	}

	key := buildMediaKey(header.Filename)
	if err := h.store.Upload(r.Context(), key, file, contentType); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info("media uploaded", "key", key, "content_type", contentType)
	handlers.RespondJSON(w, http.StatusCreated, map[string]string{
		"image_key": key,
	})
}

func (h *mediaHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)

	if result.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(result.ContentLength, 10),
		)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}

func (h *mediaHandler) remove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.store.Delete(r.Context(), key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func buildMediaKey(filename string) string {
	name := path.Base(filename)
	if name == "." || name == "" {
		name = "image"
	}
	return fmt.Sprintf("media/%s/%s", uuid.New(), name)
}
