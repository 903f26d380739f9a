package platform

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/countries"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fwsm/internal/app/system/navigation"
	"github.com/dalemusser/fwsm/internal/app/system/paging"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler serves the public organization directory.
type Handler struct {
	Queries *portalqueries.Queries
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(q *portalqueries.Queries, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Queries: q, ErrLog: errLog, Log: logger}
}

type directoryData struct {
	viewdata.BaseVM
	Sectors       []models.Sector
	Subsectors    []models.Subsector
	SectorID      int
	SubsectorID   int
	Organizations []viewdata.OrgCard
	Range         paging.Range
	PrevURL       string
	NextURL       string
}

type subsectorOptions struct {
	Subsectors  []models.Subsector
	SubsectorID int
}

type galleryImage struct {
	Thumb string
	Full  string
}

type organizationData struct {
	viewdata.BaseVM
	Org           models.OrganizationProfile
	Description   template.HTML
	SectorName    string
	SubsectorName string
	CountryName   string
	LogoURL       string
	Images        []galleryImage
	IsCurrent     bool
}

// filter reads sector, subsector and page from the query string.
type filter struct {
	sectorID    int
	subsectorID int
	page        int
}

func readFilter(r *http.Request) filter {
	f := filter{page: paging.ParsePage(r)}
	f.sectorID, _ = formutil.PositiveInt(query.Get(r, "sector"))
	f.subsectorID, _ = formutil.PositiveInt(query.Get(r, "subsector"))
	return f
}

func (f filter) encode(page int) string {
	v := url.Values{}
	if f.sectorID != 0 {
		v.Set("sector", strconv.Itoa(f.sectorID))
	}
	if f.subsectorID != 0 {
		v.Set("subsector", strconv.Itoa(f.subsectorID))
	}
	v.Set("page", strconv.Itoa(page))
	return v.Encode()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /platform and GET /platform/list                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// load resolves the filter into one directory page. A subsector that does
// not belong to the selected sector is dropped, so changing the sector
// resets the subsector.
func (h *Handler) load(ctx context.Context, f filter) (directoryData, error) {
	var (
		data       directoryData
		sectors    []models.Sector
		subsectors []models.Subsector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sectors, err = h.Queries.Sectors(gctx)
		return err
	})
	if f.sectorID != 0 {
		g.Go(func() (err error) {
			subsectors, err = h.Queries.Subsectors(gctx, f.sectorID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return data, err
	}

	if f.subsectorID != 0 && !containsSubsector(subsectors, f.subsectorID) {
		f.subsectorID = 0
	}

	orgs, err := h.Queries.Organizations(ctx, portalqueries.DirectoryFilter{
		SectorID:    f.sectorID,
		SubsectorID: f.subsectorID,
		Page:        f.page,
		PageSize:    paging.PageSize,
	})
	if err != nil {
		return data, err
	}

	rg := paging.ComputeRange(orgs.Pagination, len(orgs.Data))
	data = directoryData{
		Sectors:       sectors,
		Subsectors:    subsectors,
		SectorID:      f.sectorID,
		SubsectorID:   f.subsectorID,
		Organizations: viewdata.Cards(orgs.Data, viewdata.CardFromDirectory),
		Range:         rg,
		PrevURL:       f.encode(rg.PrevPage),
		NextURL:       f.encode(rg.NextPage),
	}
	return data, nil
}

func containsSubsector(list []models.Subsector, id int) bool {
	for _, s := range list {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.load(ctx, readFilter(r))
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load directory failed", err, "/")
		return
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Platform", "/")
	templates.Render(w, r, "platform", data)
}

// ServeList renders only the result list for HTMX filter changes.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.load(ctx, readFilter(r))
	if err != nil {
		h.ErrLog.HTMXLogServerError(w, r, "load directory list failed", err, "Could not load organizations.")
		return
	}
	templates.RenderSnippet(w, "platform_list", data)
}

// ServeSubsectorOptions renders the subsector <option> list for a sector.
// The directory filter and the organization registration form use it.
func (h *Handler) ServeSubsectorOptions(w http.ResponseWriter, r *http.Request) {
	sectorID, ok := formutil.PositiveInt(query.Get(r, "sector"))
	if !ok {
		templates.RenderSnippet(w, "subsector_options", subsectorOptions{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	subs, err := h.Queries.Subsectors(ctx, sectorID)
	if err != nil {
		h.ErrLog.HTMXLogServerError(w, r, "load subsectors failed", err, "Could not load subsectors.")
		return
	}
	templates.RenderSnippet(w, "subsector_options", subsectorOptions{Subsectors: subs})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /platform/organization/{id}                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.PositiveInt(chi.URLParam(r, "id"))
	if !ok {
		uierrors.RenderNotFound(w, r, "This organization does not exist.", "/platform")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Queries.Profile(ctx, id)
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load organization failed", err, "/platform")
		return
	}

	a := org.Attributes
	data := organizationData{
		BaseVM:        viewdata.NewBaseVM(r, a.Name, "/platform"),
		Org:           org,
		Description:   htmlsanitize.Text(a.Description),
		SectorName:    a.Subsector.Attributes.Sector.Attributes.Name,
		SubsectorName: a.Subsector.Attributes.Name,
		CountryName:   countries.Name(a.Address.Country),
		IsCurrent:     h.isCurrent(ctx, r, org.ID),
	}
	data.BackURL = navigation.SafeBackURL(r, navigation.PlatformBackURL)
	if a.Logo != nil {
		data.LogoURL = a.Logo.SmallURL()
	}
	for _, img := range a.Images {
		data.Images = append(data.Images, galleryImage{Thumb: img.ThumbnailURL(), Full: img.Attributes.URL})
	}
	templates.Render(w, r, "platform_organization", data)
}

// isCurrent reports whether id is the signed-in user's organization. Any
// failure only hides the edit link.
func (h *Handler) isCurrent(ctx context.Context, r *http.Request, id int) bool {
	sess, ok := session.FromRequest(r)
	if !ok {
		return false
	}
	cur, err := h.Queries.CurrentOrganization(ctx, sess)
	if err != nil {
		h.Log.Debug("current organization unavailable", zap.Error(err))
		return false
	}
	return cur != nil && cur.ID == id
}
