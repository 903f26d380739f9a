// internal/app/store/queries/portalqueries/portalqueries.go
package portalqueries

import (
	"context"
	"errors"
	"slices"
	"time"

	authstore "github.com/dalemusser/fwsm/internal/app/store/auth"
	organizationstore "github.com/dalemusser/fwsm/internal/app/store/organizations"
	pagestore "github.com/dalemusser/fwsm/internal/app/store/pages"
	sectorstore "github.com/dalemusser/fwsm/internal/app/store/sectors"
	subsectorstore "github.com/dalemusser/fwsm/internal/app/store/subsectors"
	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"go.uber.org/zap"
)

// Session is what the authenticated queries and mutations need from the
// request's token store.
type Session interface {
	Token() (string, bool)
	SetToken(token string, maxAge time.Duration) error
	ClearToken()
	Fingerprint() string
}

// Queries reads through the cache and performs mutations, invalidating the
// cached resources each mutation changes. Stores never touch the cache.
type Queries struct {
	cache *querycache.Cache
	log   *zap.Logger

	auth       *authstore.Store
	orgs       *organizationstore.Store
	sectors    *sectorstore.Store
	subsectors *subsectorstore.Store
	pages      *pagestore.Store
	uploads    *uploadstore.Store
}

func New(c *apiclient.Client, cache *querycache.Cache, log *zap.Logger) *Queries {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queries{
		cache:      cache,
		log:        log,
		auth:       authstore.New(c),
		orgs:       organizationstore.New(c),
		sectors:    sectorstore.New(c),
		subsectors: subsectorstore.New(c),
		pages:      pagestore.New(c),
		uploads:    uploadstore.New(c),
	}
}

// Cache exposes the cache for stats and warming.
func (q *Queries) Cache() *querycache.Cache { return q.cache }

// tokenOf snapshots the token so a detached fetch does not read the request
// after it has finished.
func tokenOf(s Session) (apiclient.StaticToken, bool) {
	tok, ok := s.Token()
	return apiclient.StaticToken(tok), ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authenticated reads                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// CurrentUser reports who is signed in. Without a token it is signed out and
// no call is made.
func (q *Queries) CurrentUser(ctx context.Context, s Session) (models.AuthState, error) {
	ts, ok := tokenOf(s)
	st, err := querycache.Fetch(ctx, q.cache, querycache.K(querycache.CurrentUser, s.Fingerprint()),
		func(ctx context.Context) (models.AuthState, error) {
			return q.auth.CurrentUser(ctx, ts)
		}, querycache.Enabled(ok))
	if errors.Is(err, querycache.ErrDisabled) {
		return models.AuthState{}, nil
	}
	return st, err
}

// CurrentOrganization returns the signed-in user's organization, or nil when
// there is none or nobody is signed in.
func (q *Queries) CurrentOrganization(ctx context.Context, s Session) (*models.OrganizationProfile, error) {
	ts, ok := tokenOf(s)
	org, err := querycache.Fetch(ctx, q.cache, querycache.K(querycache.CurrentOrganization, s.Fingerprint()),
		func(ctx context.Context) (*models.OrganizationProfile, error) {
			return q.orgs.Current(ctx, ts)
		}, querycache.Enabled(ok))
	if errors.Is(err, querycache.ErrDisabled) {
		return nil, nil
	}
	return org, err
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public reads                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// DirectoryFilter selects one page of the directory.
type DirectoryFilter struct {
	SectorID    int
	SubsectorID int
	Page        int
	PageSize    int
}

func (q *Queries) Organizations(ctx context.Context, f DirectoryFilter) (models.List[models.OrganizationWithSector], error) {
	key := querycache.K(querycache.Organizations, f.SectorID, f.SubsectorID, f.Page, f.PageSize)
	return querycache.Fetch(ctx, q.cache, key, func(ctx context.Context) (models.List[models.OrganizationWithSector], error) {
		return q.orgs.List(ctx, organizationstore.ListOptions{
			SectorID:    f.SectorID,
			SubsectorID: f.SubsectorID,
			Page:        f.Page,
			PageSize:    f.PageSize,
		})
	})
}

// Highlighted returns the newest organizations; sectorID 0 means all sectors.
func (q *Queries) Highlighted(ctx context.Context, sectorID int) ([]models.HighlightedOrganization, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.HighlightedOrganizations, sectorID),
		func(ctx context.Context) ([]models.HighlightedOrganization, error) {
			return q.orgs.Highlighted(ctx, sectorID)
		})
}

func (q *Queries) Profile(ctx context.Context, id int) (models.OrganizationProfile, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.OrganizationProfile, id),
		func(ctx context.Context) (models.OrganizationProfile, error) {
			return q.orgs.Profile(ctx, id)
		})
}

func (q *Queries) Sectors(ctx context.Context) ([]models.Sector, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.Sectors),
		func(ctx context.Context) ([]models.Sector, error) {
			return q.sectors.List(ctx)
		})
}

func (q *Queries) Sector(ctx context.Context, id int) (models.Sector, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.Sector, id),
		func(ctx context.Context) (models.Sector, error) {
			return q.sectors.Get(ctx, id)
		})
}

// Subsectors lists subsectors, within one sector when sectorID is set.
func (q *Queries) Subsectors(ctx context.Context, sectorID int) ([]models.Subsector, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.Subsectors, sectorID),
		func(ctx context.Context) ([]models.Subsector, error) {
			return q.subsectors.List(ctx, sectorID)
		})
}

func (q *Queries) Home(ctx context.Context) (models.HomePageContent, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.HomePage), q.pages.Home)
}

func (q *Queries) About(ctx context.Context) (models.AboutPageContent, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.AboutPage), q.pages.About)
}

func (q *Queries) Themes(ctx context.Context) (models.ThemesPageContent, error) {
	return querycache.Fetch(ctx, q.cache, querycache.K(querycache.ThemesPage), q.pages.Themes)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Mutations                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn exchanges credentials for a token and stores it in s.
func (q *Queries) SignIn(ctx context.Context, s Session, cred authstore.Credentials, maxAge time.Duration) (models.User, error) {
	res, err := q.auth.SignIn(ctx, cred)
	if err != nil {
		return models.User{}, err
	}
	if err := s.SetToken(res.JWT, maxAge); err != nil {
		return models.User{}, err
	}
	q.signedInOrOut()
	return res.User, nil
}

// SignUp registers an account and signs it in.
func (q *Queries) SignUp(ctx context.Context, s Session, reg authstore.Registration, maxAge time.Duration) (models.User, error) {
	res, err := q.auth.SignUp(ctx, reg)
	if err != nil {
		return models.User{}, err
	}
	if err := s.SetToken(res.JWT, maxAge); err != nil {
		return models.User{}, err
	}
	q.signedInOrOut()
	return res.User, nil
}

// SignOut drops the token. It never fails.
func (q *Queries) SignOut(s Session) {
	s.ClearToken()
	q.signedInOrOut()
}

// ChangePassword changes the password and keeps the fresh token when the
// backend issues one.
func (q *Queries) ChangePassword(ctx context.Context, s Session, pc authstore.PasswordChange, maxAge time.Duration) error {
	ts, _ := tokenOf(s)
	res, err := q.auth.ChangePassword(ctx, ts, pc)
	if err != nil {
		return err
	}
	if res.JWT != "" {
		if err := s.SetToken(res.JWT, maxAge); err != nil {
			return err
		}
	}
	q.cache.Invalidate(querycache.CurrentUser)
	return nil
}

// CreateOrganization registers the signed-in user's organization.
func (q *Queries) CreateOrganization(ctx context.Context, s Session, in models.OrganizationInput) (models.Organization, error) {
	ts, _ := tokenOf(s)
	org, err := q.orgs.Create(ctx, ts, in)
	if err != nil {
		return models.Organization{}, err
	}
	q.cache.Invalidate(
		querycache.CurrentOrganization,
		querycache.Organizations,
		querycache.HighlightedOrganizations,
	)
	return org, nil
}

// UpdateOrganization saves the fields set in in.
func (q *Queries) UpdateOrganization(ctx context.Context, s Session, id int, in models.OrganizationInput) (models.Organization, error) {
	ts, _ := tokenOf(s)
	org, err := q.orgs.Update(ctx, ts, id, in)
	if err != nil {
		return models.Organization{}, err
	}
	q.organizationChanged()
	return org, nil
}

// ReplaceLogo uploads file and makes it the organization's logo. When the
// upload succeeds but the update fails the update error is returned and the
// uploaded file stays in the media library.
func (q *Queries) ReplaceLogo(ctx context.Context, s Session, orgID int, file apiclient.File) (models.UploadedImage, error) {
	ts, _ := tokenOf(s)
	imgs, err := q.uploads.UploadImages(ctx, ts, []apiclient.File{file})
	if err != nil {
		return models.UploadedImage{}, err
	}
	logo := imgs[0].ID
	if _, err := q.orgs.Update(ctx, ts, orgID, models.OrganizationInput{Logo: &logo}); err != nil {
		q.log.Warn("logo uploaded but organization update failed",
			zap.Int("organization_id", orgID), zap.Int("image_id", logo), zap.Error(err))
		return models.UploadedImage{}, err
	}
	q.organizationChanged()
	return imgs[0], nil
}

// AddImages uploads files and appends them to the gallery after the existing
// images.
func (q *Queries) AddImages(ctx context.Context, s Session, org models.OrganizationProfile, files []apiclient.File) ([]models.UploadedImage, error) {
	ts, _ := tokenOf(s)
	imgs, err := q.uploads.UploadImages(ctx, ts, files)
	if err != nil {
		return nil, err
	}
	ids := append(org.ImageIDs(), uploadstore.IDs(imgs)...)
	if _, err := q.orgs.Update(ctx, ts, org.ID, models.OrganizationInput{Images: &ids}); err != nil {
		q.log.Warn("images uploaded but organization update failed",
			zap.Int("organization_id", org.ID), zap.Ints("image_ids", uploadstore.IDs(imgs)), zap.Error(err))
		return nil, err
	}
	q.organizationChanged()
	return imgs, nil
}

// RemoveImage takes imageID out of the gallery. The file itself stays in the
// media library.
func (q *Queries) RemoveImage(ctx context.Context, s Session, org models.OrganizationProfile, imageID int) error {
	ids := slices.DeleteFunc(org.ImageIDs(), func(id int) bool { return id == imageID })
	ts, _ := tokenOf(s)
	if _, err := q.orgs.Update(ctx, ts, org.ID, models.OrganizationInput{Images: &ids}); err != nil {
		return err
	}
	q.organizationChanged()
	return nil
}

func (q *Queries) signedInOrOut() {
	q.cache.Invalidate(querycache.CurrentUser, querycache.CurrentOrganization)
}

func (q *Queries) organizationChanged() {
	q.cache.Invalidate(
		querycache.CurrentOrganization,
		querycache.OrganizationProfile,
		querycache.Organizations,
		querycache.HighlightedOrganizations,
	)
}
