// internal/app/features/settings/images.go
package settings

import (
	"context"
	"net/http"
	"slices"

	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const msgImagesSaved = "Your product images have been successfully updated"

type galleryItem struct {
	ID    int
	Thumb string
	Alt   string
}

type imagesFormData struct {
	formutil.Base
	Images    []galleryItem
	Remaining int
	MaxImages int
	MaxMB     int64
}

func (h *Handler) renderImages(w http.ResponseWriter, r *http.Request, status int, org *models.OrganizationProfile, data imagesFormData) {
	formutil.SetBase(&data.Base, r, "Edit product images", profilePath(org.ID))
	for _, img := range org.Attributes.Images {
		item := galleryItem{ID: img.ID, Thumb: img.ThumbnailURL()}
		if alt := img.Attributes.AlternativeText; alt != nil {
			item.Alt = *alt
		}
		data.Images = append(data.Images, item)
	}
	data.MaxImages = h.Uploads.MaxImages
	data.Remaining = max(h.Uploads.MaxImages-len(org.Attributes.Images), 0)
	data.MaxMB = h.Uploads.MaxBytes >> 20
	render(w, r, status, "settings_images", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings/images                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeImages(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	h.renderImages(w, r, http.StatusOK, org, imagesFormData{})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/images                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleImages appends the uploaded files to the gallery. The gallery never
// holds more than the configured number of images.
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}

	files, err := h.readFiles(w, r, "files", h.Uploads.MaxImages)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "read image upload failed", err, "The upload could not be read.", "/settings/images")
		return
	}

	data := imagesFormData{}
	data.Errors = formutil.Errors{}
	existing := len(org.Attributes.Images)
	if err := uploadstore.Check(files, uploadstore.GalleryLimits(h.Uploads.MaxBytes, h.Uploads.MaxImages, existing)); err != nil {
		data.Errors.Add("files", uploadMessage(err))
		h.renderImages(w, r, http.StatusUnprocessableEntity, org, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	added, err := h.Queries.AddImages(ctx, h.Sessions.For(w, r), *org, files)
	if err != nil {
		if rejected(err, &data.Base) {
			h.renderImages(w, r, http.StatusBadRequest, org, data)
			return
		}
		h.ErrLog.HandleBackendError(w, r, "add images failed", err, "/settings/images")
		return
	}

	h.AuditLog.OrgImagesUpdated(r.Context(), r, userID(r), org.ID, existing+len(added))
	viewdata.Flash(r, msgImagesSaved)
	http.Redirect(w, r, "/settings/images", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/images/{id}/remove                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	id, ok := formutil.PositiveInt(chi.URLParam(r, "id"))
	if !ok || !slices.Contains(org.ImageIDs(), id) {
		h.ErrLog.LogBadRequest(w, r, "remove unknown image", nil, "This image is not part of your gallery.", "/settings/images")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Queries.RemoveImage(ctx, h.Sessions.For(w, r), *org, id); err != nil {
		h.ErrLog.HandleBackendError(w, r, "remove image failed", err, "/settings/images")
		return
	}

	h.AuditLog.OrgImagesUpdated(r.Context(), r, userID(r), org.ID, len(org.Attributes.Images)-1)
	viewdata.Flash(r, msgImagesSaved)
	http.Redirect(w, r, "/settings/images", http.StatusSeeOther)
}
