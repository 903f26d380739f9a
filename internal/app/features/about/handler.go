// internal/app/features/about/handler.go
package about

import (
	"context"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type pageData struct {
	viewdata.BaseVM
	Heading      string
	Introduction string
	Body         template.HTML
}

type Handler struct {
	Queries *portalqueries.Queries
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(q *portalqueries.Queries, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Queries: q, ErrLog: errLog, Log: logger}
}

func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Queries.About(ctx)
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load about page failed", err, "/")
		return
	}

	data := pageData{
		BaseVM:       viewdata.NewBaseVM(r, page.Attributes.Title, "/"),
		Heading:      page.Attributes.Title,
		Introduction: page.Attributes.Introduction,
		Body:         htmlsanitize.PrepareForDisplay(page.Attributes.Content),
	}

	templates.Render(w, r, "about", data)
}
