package themes

import (
	"context"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fwsm/internal/app/system/paging"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler serves the themes overview and one page per sector.
type Handler struct {
	Queries *portalqueries.Queries
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(q *portalqueries.Queries, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Queries: q, ErrLog: errLog, Log: logger}
}

type themesData struct {
	viewdata.BaseVM
	Heading      string
	Introduction string
	Body         template.HTML
	Overview     models.SectorOverview
}

type sectorData struct {
	viewdata.BaseVM
	Sector        models.Sector
	Description   template.HTML
	Subsectors    []models.Subsector
	Highlighted   []viewdata.OrgCard
	Organizations []viewdata.OrgCard
	Range         paging.Range
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /themes                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeThemes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Queries.Themes(ctx)
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load themes page failed", err, "/")
		return
	}

	data := themesData{
		BaseVM:       viewdata.NewBaseVM(r, page.Attributes.Title, "/"),
		Heading:      page.Attributes.Title,
		Introduction: page.Attributes.Introduction,
		Body:         htmlsanitize.PrepareForDisplay(page.Attributes.Content),
		Overview:     page.Attributes.SectorOverview,
	}
	templates.Render(w, r, "themes", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /themes/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSector(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.PositiveInt(chi.URLParam(r, "id"))
	if !ok {
		uierrors.RenderNotFound(w, r, "This theme does not exist.", "/themes")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		sector      models.Sector
		subsectors  []models.Subsector
		highlighted []models.HighlightedOrganization
		orgs        models.List[models.OrganizationWithSector]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sector, err = h.Queries.Sector(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		subsectors, err = h.Queries.Subsectors(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		orgs, err = h.Queries.Organizations(gctx, portalqueries.DirectoryFilter{
			SectorID: id,
			Page:     paging.ParsePage(r),
			PageSize: paging.PageSize,
		})
		return err
	})
	g.Go(func() error {
		var err error
		if highlighted, err = h.Queries.Highlighted(gctx, id); err != nil {
			h.Log.Warn("load highlighted organizations failed", zap.Int("sector", id), zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.HandleBackendError(w, r, "load theme failed", err, "/themes")
		return
	}

	data := sectorData{
		BaseVM:        viewdata.NewBaseVM(r, sector.Attributes.Name, "/themes"),
		Sector:        sector,
		Description:   htmlsanitize.Text(sector.Attributes.Description),
		Subsectors:    subsectors,
		Highlighted:   viewdata.Cards(highlighted, viewdata.CardFromHighlighted),
		Organizations: viewdata.Cards(orgs.Data, viewdata.CardFromDirectory),
		Range:         paging.ComputeRange(orgs.Pagination, len(orgs.Data)),
	}
	templates.Render(w, r, "theme_sector", data)
}
