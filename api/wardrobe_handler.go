package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

// allowedImageTypes maps accepted image MIME types to the stored file extension
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UploadItemForm holds the text fields of a wardrobe upload
type UploadItemForm struct {
	Name     string `form:"name" validate:"required,max=100"`
	Category string `form:"category" validate:"required,oneof=Tops Bottoms Dresses Outerwear Footwear Accessories"`
	Color    string `form:"color" validate:"required,max=30"`
}

func (s *Server) handleListWardrobe(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "List Wardrobe")

	user := currentUser(r)
	items, err := s.Wardrobe.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	s.resolveImageURLs(r, items)

	// Ensure empty slice is returned as [] instead of null
	if items == nil {
		items = []models.WardrobeItem{}
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

func (s *Server) handleUploadItem(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Upload Wardrobe Item")
	maxBytes := s.Config.MaxUploadBytes

	// room for the text fields and multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, log, imageTooLarge(maxBytes))
			return
		}
		s.fail(w, log, apierr.BadRequest("error parsing form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := UploadItemForm{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Category: strings.TrimSpace(r.FormValue("category")),
		Color:    strings.TrimSpace(r.FormValue("color")),
	}
	if err := s.check(form); err != nil {
		s.fail(w, log, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.fail(w, log, apierr.Validation("validation failed", map[string]string{"image": "is required"}))
		return
	}
	defer file.Close()
	if header.Size > maxBytes {
		s.fail(w, log, imageTooLarge(maxBytes))
		return
	}

	contentType, ext, err := sniffImage(file)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	user := currentUser(r)
	key := fmt.Sprintf("wardrobe/%s/%s/%d-%s.%s", user.ID.Hex(), form.Category, time.Now().UnixMilli(), uuid.NewString(), ext)
	if err := s.Images.Upload(r.Context(), key, file, contentType); err != nil {
		s.fail(w, log, apierr.New(http.StatusInternalServerError, "UPLOAD_FAILED", "failed to store image", err))
		return
	}

	item := &models.WardrobeItem{
		UserID:   user.ID,
		Name:     form.Name,
		Category: form.Category,
		Color:    form.Color,
		ImageKey: key,
	}
	if err := s.Wardrobe.Create(r.Context(), item); err != nil {
		s.deleteImage(r, key)
		s.fail(w, log, err)
		return
	}

	if item.ImageURL, err = s.Images.URL(r.Context(), key); err != nil {
		log.Warnw("Failed to resolve image URL", "key", key, "error", err)
	}

	log.Infow("Wardrobe item added", "user_id", user.ID.Hex(), "item_id", item.ID.Hex(), "category", item.Category)
	utils.RespondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Delete Wardrobe Item")

	id, err := parseObjectID(r.PathValue("id"))
	if err != nil {
		s.fail(w, log, err)
		return
	}

	user := currentUser(r)
	item, err := s.Wardrobe.Delete(r.Context(), user.ID, id)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	s.deleteImage(r, item.ImageKey)

	log.Infow("Wardrobe item deleted", "user_id", user.ID.Hex(), "item_id", id.Hex())
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

// sniffImage detects the content type from the file bytes and rewinds the file
func sniffImage(file multipart.File) (contentType, ext string, err error) {
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", "", apierr.BadRequest("could not read image")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("rewind upload: %w", err)
	}

	for allowed, ext := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, ext, nil
		}
	}
	return "", "", apierr.Validation("unsupported image type",
		map[string]string{"image": "must be a JPEG, PNG or WebP image"})
}

func imageTooLarge(maxBytes int64) error {
	return apierr.Validation("image too large",
		map[string]string{"image": fmt.Sprintf("must be at most %d MB", maxBytes>>20)})
}

// deleteImage removes a stored object in the background. Failures are only logged.
func (s *Server) deleteImage(r *http.Request, key string) {
	if key == "" {
		return
	}
	ctx, cancel := detached(r)
	go func() {
		defer cancel()
		if err := s.Images.Delete(ctx, key); err != nil {
			s.Log.Warnw("Failed to delete image", "key", key, "error", err)
		}
	}()
}

// resolveImageURLs fills ImageURL from the stored keys
func (s *Server) resolveImageURLs(r *http.Request, items []models.WardrobeItem) {
	for i := range items {
		if items[i].ImageKey == "" {
			continue
		}
		url, err := s.Images.URL(r.Context(), items[i].ImageKey)
		if err != nil {
			s.Log.Warnw("Failed to resolve image URL", "key", items[i].ImageKey, "error", err)
			continue
		}
		items[i].ImageURL = url
	}
}
