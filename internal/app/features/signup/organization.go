// internal/app/features/signup/organization.go
package signup

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/countries"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const msgRegistered = "You have just registered your organization at Food Waste Solution Map. Welcome!"

// organizationForm is the registration form as entered.
type organizationForm struct {
	Name        string
	Description string
	Address     string
	Postcode    string
	City        string
	Province    string
	Country     string
	SectorID    int
	SubsectorID int
}

type organizationFormData struct {
	formutil.Base
	Form           organizationForm
	Sectors        []models.Sector
	Subsectors     []models.Subsector
	Countries      []countries.Country
	DescriptionMax int
}

func readOrganizationForm(r *http.Request) organizationForm {
	f := organizationForm{
		Name:        formutil.Trim(r, "name"),
		Description: formutil.Trim(r, "description"),
		Address:     formutil.Trim(r, "address"),
		Postcode:    formutil.Trim(r, "postcode"),
		City:        formutil.Trim(r, "city"),
		Province:    formutil.Trim(r, "province"),
		Country:     formutil.Trim(r, "country"),
	}
	f.SectorID, _ = formutil.Int(r, "sector")
	f.SubsectorID, _ = formutil.Int(r, "subsector")
	return f
}

// validate checks everything but the subsector, which needs the sector's
// subsector list.
func (f organizationForm) validate(errs formutil.Errors) {
	formutil.Required(errs, "name", f.Name, "Please enter the name of your organization")
	formutil.Required(errs, "description", f.Description, "Please describe your organization")
	formutil.MaxLen(errs, "description", f.Description, limits.ShortDescriptionMax, "The description can be at most 150 characters")
	formutil.Required(errs, "address", f.Address, "Please enter an address")
	formutil.Required(errs, "postcode", f.Postcode, "Please enter a postcode")
	formutil.Required(errs, "city", f.City, "Please enter a city")
	formutil.Required(errs, "province", f.Province, "Please enter a province")
	if !countries.Valid(f.Country) {
		errs.Add("country", "Please select a country")
	}
	if f.SectorID == 0 {
		errs.Add("sector", "Please select a sector")
	}
}

func (f organizationForm) input() models.OrganizationInput {
	sub := f.SubsectorID
	return models.OrganizationInput{
		Name:             &f.Name,
		ShortDescription: &f.Description,
		Address: &models.AddressInput{
			Address:  f.Address,
			Postcode: f.Postcode,
			City:     f.City,
			Province: f.Province,
			Country:  f.Country,
		},
		Subsector: &sub,
	}
}

// loadChoices loads the sector list and, when a sector is chosen, its
// subsectors.
func (h *Handler) loadChoices(ctx context.Context, sectorID int) ([]models.Sector, []models.Subsector, error) {
	var (
		sectors    []models.Sector
		subsectors []models.Subsector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sectors, err = h.Queries.Sectors(gctx)
		return err
	})
	if sectorID != 0 {
		g.Go(func() (err error) {
			subsectors, err = h.Queries.Subsectors(gctx, sectorID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sectors, subsectors, nil
}

func (h *Handler) renderOrganization(w http.ResponseWriter, r *http.Request, status int, data organizationFormData) {
	formutil.SetBase(&data.Base, r, "Register your organization", "/")
	data.Countries = countries.All()
	data.DescriptionMax = limits.ShortDescriptionMax
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	templates.Render(w, r, "register_organization", data)
}

// alreadyRegistered sends users who have an organization to its settings.
func (h *Handler) alreadyRegistered(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	org, err := h.Queries.CurrentOrganization(ctx, h.Sessions.For(w, r))
	if err != nil {
		h.Log.Debug("current organization unavailable", zap.Error(err))
		return false
	}
	if org == nil {
		return false
	}
	http.Redirect(w, r, "/settings/profile", http.StatusSeeOther)
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sign-up/organization                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegisterOrganization(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if h.alreadyRegistered(ctx, w, r) {
		return
	}

	sectors, _, err := h.loadChoices(ctx, 0)
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load sectors failed", err, "/")
		return
	}
	h.renderOrganization(w, r, http.StatusOK, organizationFormData{Sectors: sectors})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sign-up/organization                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegisterOrganization(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", auth.RegisterOrganizationPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	form := readOrganizationForm(r)
	sectors, subsectors, err := h.loadChoices(ctx, form.SectorID)
	if err != nil {
		h.ErrLog.HandleBackendError(w, r, "load sectors failed", err, auth.RegisterOrganizationPath)
		return
	}

	data := organizationFormData{Form: form, Sectors: sectors, Subsectors: subsectors}
	data.Errors = formutil.Errors{}
	form.validate(data.Errors)
	if !containsSubsector(subsectors, form.SubsectorID) {
		data.Errors.Add("subsector", "Please select a subsector")
	}
	if data.Errors.Any() {
		h.renderOrganization(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	org, err := h.Queries.CreateOrganization(ctx, h.Sessions.For(w, r), form.input())
	if err != nil {
		if apiclient.IsKind(err, apiclient.KindValidation) {
			msg, _ := data.ApplyBackendError(err)
			if msg == "" {
				msg = msgUnknown
			}
			data.SetError(msg)
			h.renderOrganization(w, r, http.StatusBadRequest, data)
			return
		}
		h.ErrLog.HandleBackendError(w, r, "create organization failed", err, auth.RegisterOrganizationPath)
		return
	}

	userID := 0
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}
	h.AuditLog.OrgCreated(r.Context(), r, userID, org.ID, form.Name)
	h.Log.Info("organization registered", zap.Int("organization_id", org.ID), zap.Int("user_id", userID))

	viewdata.Flash(r, msgRegistered)
	http.Redirect(w, r, "/platform/organization/"+strconv.Itoa(org.ID), http.StatusSeeOther)
}

func containsSubsector(list []models.Subsector, id int) bool {
	for _, s := range list {
		if s.ID == id {
			return true
		}
	}
	return false
}
