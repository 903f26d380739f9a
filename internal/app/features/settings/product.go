// internal/app/features/settings/product.go
package settings

import (
	"context"
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

const msgProductSaved = "Your product description has been successfully updated"

type productFormData struct {
	formutil.Base
	Description string
}

func (h *Handler) renderProduct(w http.ResponseWriter, r *http.Request, status int, org *models.OrganizationProfile, data productFormData) {
	formutil.SetBase(&data.Base, r, "Edit product description", profilePath(org.ID))
	render(w, r, status, "settings_product", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings/product                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProduct(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	data := productFormData{}
	if d := org.Attributes.Description; d != nil {
		data.Description = *d
	}
	h.renderProduct(w, r, http.StatusOK, org, data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/product                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleProduct saves the rich-text description. It is sanitized before it
// leaves the portal and again whenever it is shown.
func (h *Handler) HandleProduct(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxProductFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "The description is too long.", "/settings/product")
		return
	}

	data := productFormData{Description: htmlsanitize.Sanitize(formutil.Trim(r, "description"))}
	data.Errors = formutil.Errors{}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in := models.OrganizationInput{Description: &data.Description}
	if _, err := h.Queries.UpdateOrganization(ctx, h.Sessions.For(w, r), org.ID, in); err != nil {
		if rejected(err, &data.Base) {
			h.renderProduct(w, r, http.StatusBadRequest, org, data)
			return
		}
		h.ErrLog.HandleBackendError(w, r, "update product description failed", err, "/settings/product")
		return
	}

	h.AuditLog.OrgUpdated(r.Context(), r, userID(r), org.ID, "description")
	viewdata.Flash(r, msgProductSaved)
	http.Redirect(w, r, "/settings/product", http.StatusSeeOther)
}
