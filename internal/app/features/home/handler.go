package home

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Queries *portalqueries.Queries
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(q *portalqueries.Queries, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Queries: q,
		ErrLog:  errLog,
		Log:     logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	Content     models.HomePageAttributes
	Highlighted []viewdata.OrgCard
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		page        models.HomePageContent
		highlighted []models.HighlightedOrganization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = h.Queries.Home(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		highlighted, err = h.Queries.Highlighted(gctx, 0)
		if err != nil {
			// The page is still useful without the highlight row.
			h.Log.Warn("load highlighted organizations failed", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.HandleBackendError(w, r, "load home page failed", err, "/")
		return
	}

	data := homeData{
		BaseVM:      viewdata.NewBaseVM(r, "Welcome", "/"),
		Content:     page.Attributes,
		Highlighted: viewdata.Cards(highlighted, viewdata.CardFromHighlighted),
	}
	templates.Render(w, r, "home", data)
}
