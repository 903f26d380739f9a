// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

// DefaultPageSize is the directory page size.
const DefaultPageSize = 25

// HighlightedCount is how many organizations the home and themes pages show.
const HighlightedCount = 2

var profilePopulate = apiclient.Populate{Paths: []string{"subsector.sector", "logo", "address", "images"}}

type Store struct {
	c *apiclient.Client
}

func New(c *apiclient.Client) *Store {
	return &Store{c: c}
}

// ListOptions filters the directory. SubsectorID wins over SectorID when both
// are set. Auth is optional; the directory is public.
type ListOptions struct {
	SectorID    int
	SubsectorID int
	Page        int
	PageSize    int
	Auth        apiclient.TokenSource
}

// List returns one page of the directory with each entry's subsector and
// sector populated.
func (s *Store) List(ctx context.Context, opt ListOptions) (models.List[models.OrganizationWithSector], error) {
	q := apiclient.Query{
		Populate: apiclient.Populate{Paths: []string{"subsector", "subsector.sector"}},
		Sort:     []string{"name:asc"},
	}
	switch {
	case opt.SubsectorID != 0:
		if err := apiclient.ValidateID(opt.SubsectorID); err != nil {
			return models.List[models.OrganizationWithSector]{}, err
		}
		q.Filters = []apiclient.Filter{apiclient.Eq(opt.SubsectorID, "subsector", "id")}
	case opt.SectorID != 0:
		if err := apiclient.ValidateID(opt.SectorID); err != nil {
			return models.List[models.OrganizationWithSector]{}, err
		}
		q.Filters = []apiclient.Filter{apiclient.Eq(opt.SectorID, "subsector", "sector", "id")}
	}
	page, size := opt.Page, opt.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	q.Pagination = &apiclient.Pagination{Page: page, PageSize: size}

	return apiclient.Do(ctx, s.c, apiclient.Request{
		Path:  "/organizations",
		Query: q,
		Auth:  opt.Auth,
	}, models.DecodeList(models.DecodeOrganizationWithSector))
}

// Highlighted returns the newest organizations, optionally within one sector
// (sectorID 0 means all).
func (s *Store) Highlighted(ctx context.Context, sectorID int) ([]models.HighlightedOrganization, error) {
	withCount := false
	q := apiclient.Query{
		Populate:   apiclient.Populate{Paths: []string{"subsector", "subsector.sector", "featuredImage"}},
		Sort:       []string{"createdAt:desc"},
		Pagination: &apiclient.Pagination{Start: 0, Limit: HighlightedCount, WithCount: &withCount},
	}
	if sectorID != 0 {
		if err := apiclient.ValidateID(sectorID); err != nil {
			return nil, err
		}
		q.Filters = []apiclient.Filter{apiclient.Eq(sectorID, "subsector", "sector", "id")}
	}
	l, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:  "/organizations",
		Query: q,
	}, models.DecodeList(models.DecodeHighlightedOrganization))
	if err != nil {
		return nil, err
	}
	return l.Data, nil
}

// Profile returns the public profile of organization id.
func (s *Store) Profile(ctx context.Context, id int) (models.OrganizationProfile, error) {
	path, err := apiclient.PathOf("organizations", id)
	if err != nil {
		return models.OrganizationProfile{}, err
	}
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:  path,
		Query: apiclient.Query{Populate: profilePopulate},
	}, models.DecodeSingle(models.DecodeOrganizationProfile))
	if err != nil {
		return models.OrganizationProfile{}, err
	}
	return res.Data, nil
}

// Current returns the organization owned by the signed-in user, or nil when
// the user has not registered one yet.
func (s *Store) Current(ctx context.Context, ts apiclient.TokenSource) (*models.OrganizationProfile, error) {
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:        "/organizations/me",
		Query:       apiclient.Query{Populate: profilePopulate},
		Auth:        ts,
		RequireAuth: true,
	}, models.DecodeSingle(models.DecodeOrganizationProfile))
	if err != nil {
		if apiclient.IsKind(err, apiclient.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res.Data, nil
}

// Create registers an organization for the signed-in user.
func (s *Store) Create(ctx context.Context, ts apiclient.TokenSource, in models.OrganizationInput) (models.Organization, error) {
	if in.Name == nil || *in.Name == "" {
		return models.Organization{}, errors.New("organizationstore: name is required")
	}
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/organizations",
		Body:        map[string]any{"data": in},
		Auth:        ts,
		RequireAuth: true,
	}, models.DecodeSingle(models.DecodeOrganization))
	if err != nil {
		return models.Organization{}, err
	}
	return res.Data, nil
}

// Update changes the fields of organization id that are set in in.
func (s *Store) Update(ctx context.Context, ts apiclient.TokenSource, id int, in models.OrganizationInput) (models.Organization, error) {
	path, err := apiclient.PathOf("organizations", id)
	if err != nil {
		return models.Organization{}, err
	}
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Method:      http.MethodPut,
		Path:        path,
		Body:        map[string]any{"data": in},
		Auth:        ts,
		RequireAuth: true,
	}, models.DecodeSingle(models.DecodeOrganization))
	if err != nil {
		return models.Organization{}, err
	}
	return res.Data, nil
}
