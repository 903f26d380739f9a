// internal/app/features/settings/profile.go
package settings

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/countries"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

const (
	msgProfileSaved = "Your profile has been successfully updated"
	msgLogoSaved    = "Your logo has been successfully updated"
)

type profileForm struct {
	Name             string
	Email            string
	Website          string
	ShortDescription string
	Address          string
	Postcode         string
	City             string
	Province         string
	Country          string
}

type profileFormData struct {
	formutil.Base
	Form           profileForm
	Countries      []countries.Country
	DescriptionMax int
	LogoURL        string
	OrganizationID int
}

func profileFormFrom(org *models.OrganizationProfile) profileForm {
	a := org.Attributes
	f := profileForm{
		Name:             a.Name,
		Email:            a.Email,
		ShortDescription: a.ShortDescription,
		Address:          a.Address.Address,
		Postcode:         a.Address.Postcode,
		City:             a.Address.City,
		Country:          a.Address.Country,
	}
	if a.Website != nil {
		f.Website = *a.Website
	}
	if a.Address.Province != nil {
		f.Province = *a.Address.Province
	}
	return f
}

func readProfileForm(r *http.Request) profileForm {
	return profileForm{
		Name:             formutil.Trim(r, "name"),
		Email:            formutil.Trim(r, "email"),
		Website:          formutil.Trim(r, "website"),
		ShortDescription: formutil.Trim(r, "shortDescription"),
		Address:          formutil.Trim(r, "address"),
		Postcode:         formutil.Trim(r, "postcode"),
		City:             formutil.Trim(r, "city"),
		Province:         formutil.Trim(r, "province"),
		Country:          formutil.Trim(r, "country"),
	}
}

func (f profileForm) validate(errs formutil.Errors) {
	formutil.Required(errs, "name", f.Name, "Please enter the name of your organization")
	formutil.Email(errs, "email", f.Email, "Please enter a valid email address")
	if f.Website != "" {
		formutil.URL(errs, "website", f.Website, "Please enter a full web address, starting with https://")
	}
	formutil.MaxLen(errs, "shortDescription", f.ShortDescription, limits.ShortDescriptionMax, "The description can be at most 150 characters")
	if !countries.Valid(f.Country) {
		errs.Add("country", "Please select a country")
	}
}

// input sends every profile field; an empty website clears it.
func (f profileForm) input() models.OrganizationInput {
	return models.OrganizationInput{
		Name:             &f.Name,
		Email:            &f.Email,
		Website:          &f.Website,
		ShortDescription: &f.ShortDescription,
		Address: &models.AddressInput{
			Address:  f.Address,
			Postcode: f.Postcode,
			City:     f.City,
			Province: f.Province,
			Country:  f.Country,
		},
	}
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, status int, org *models.OrganizationProfile, data profileFormData) {
	formutil.SetBase(&data.Base, r, "Edit profile", profilePath(org.ID))
	data.Countries = countries.All()
	data.DescriptionMax = limits.ShortDescriptionMax
	data.OrganizationID = org.ID
	if org.Attributes.Logo != nil {
		data.LogoURL = org.Attributes.Logo.ThumbnailURL()
	}
	render(w, r, status, "settings_profile", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings/profile                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	h.renderProfile(w, r, http.StatusOK, org, profileFormData{Form: profileFormFrom(org)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/profile                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/settings/profile")
		return
	}

	data := profileFormData{Form: readProfileForm(r)}
	data.Errors = formutil.Errors{}
	data.Form.validate(data.Errors)
	if data.Errors.Any() {
		h.renderProfile(w, r, http.StatusUnprocessableEntity, org, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Queries.UpdateOrganization(ctx, h.Sessions.For(w, r), org.ID, data.Form.input()); err != nil {
		if rejected(err, &data.Base) {
			h.renderProfile(w, r, http.StatusBadRequest, org, data)
			return
		}
		h.ErrLog.HandleBackendError(w, r, "update profile failed", err, "/settings/profile")
		return
	}

	h.AuditLog.OrgUpdated(r.Context(), r, userID(r), org.ID, "profile")
	viewdata.Flash(r, msgProfileSaved)
	http.Redirect(w, r, "/settings/profile", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/profile/logo                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogo(w http.ResponseWriter, r *http.Request) {
	org, ok := organization(w, r)
	if !ok {
		return
	}

	files, err := h.readFiles(w, r, "logo", 1)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "read logo upload failed", err, "The upload could not be read.", "/settings/profile")
		return
	}

	data := profileFormData{Form: profileFormFrom(org)}
	data.Errors = formutil.Errors{}
	if err := uploadstore.Check(files, uploadstore.LogoLimits(h.Uploads.MaxBytes)); err != nil {
		data.Errors.Add("logo", uploadMessage(err))
		h.renderProfile(w, r, http.StatusUnprocessableEntity, org, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	img, err := h.Queries.ReplaceLogo(ctx, h.Sessions.For(w, r), org.ID, files[0])
	if err != nil {
		if rejected(err, &data.Base) {
			h.renderProfile(w, r, http.StatusBadRequest, org, data)
			return
		}
		h.ErrLog.HandleBackendError(w, r, "replace logo failed", err, "/settings/profile")
		return
	}

	h.AuditLog.OrgLogoUpdated(r.Context(), r, userID(r), org.ID, img.ID)
	viewdata.Flash(r, msgLogoSaved)
	http.Redirect(w, r, "/settings/profile", http.StatusSeeOther)
}

// readFiles reads the files of the multipart field. The request body is
// capped a little above n files of the configured size.
func (h *Handler) readFiles(w http.ResponseWriter, r *http.Request, field string, n int) ([]apiclient.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(n)*h.Uploads.MaxBytes+limits.MaxFormSize)
	if err := r.ParseMultipartForm(limits.MaxMultipartMemory); err != nil {
		return nil, err
	}
	var out []apiclient.File
	for _, fh := range r.MultipartForm.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, apiclient.File{Name: fh.Filename, Data: data})
	}
	return out, nil
}

// uploadMessage turns an upload check failure into form text.
func uploadMessage(err error) string {
	if errors.Is(err, uploadstore.ErrNoFiles) {
		return "Please select an image"
	}
	return "Upload refused: " + err.Error()
}

func profilePath(id int) string {
	return "/platform/organization/" + strconv.Itoa(id)
}
