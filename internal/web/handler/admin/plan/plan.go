// Package plan serves the plan catalog: the public price list and its administration.
package plan

import (
	"github.com/gofiber/fiber/v3"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/auth"
	planctl "github.com/PrepDesk/PrepDesk/internal/db/controller/plan"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

const (
	// Path is the base path of plan administration.
	Path = handler.AdminPath + "/plans"
	// PublicPath lists the active plans without authentication.
	PublicPath = handler.APIPath + "/plans"
)

// View is the api representation of a plan. Provider price ids are only
// filled on the admin endpoints.
type View struct {
	Key                    string          `json:"key"`
	Label                  string          `json:"label"`
	Description            string          `json:"description"`
	Type                   models.PlanType `json:"type"`
	MonthlyPriceCents      *int64          `json:"monthlyPriceCents"`
	YearlyPriceCents       *int64          `json:"yearlyPriceCents"`
	Currency               string          `json:"currency"`
	Highlight              bool            `json:"highlight"`
	IsActive               bool            `json:"isActive"`
	ProviderPriceIDMonthly *string         `json:"providerPriceIdMonthly,omitempty"`
	ProviderPriceIDYearly  *string         `json:"providerPriceIdYearly,omitempty"`
	MonthlyCredits         int             `json:"monthlyCredits"`
	UnlimitedCredits       bool            `json:"unlimitedCredits"`
	MaxStudents            int             `json:"maxStudents"`
	PDFExport              bool            `json:"pdfExport"`
}

func newView(p *models.Plan, admin bool) View {
	v := View{
		Key:               p.Key,
		Label:             p.Label,
		Description:       p.Description,
		Type:              p.Type,
		MonthlyPriceCents: p.MonthlyPriceCents,
		YearlyPriceCents:  p.YearlyPriceCents,
		Currency:          p.Currency,
		Highlight:         p.Highlight,
		IsActive:          p.IsActive,
		MonthlyCredits:    p.MonthlyCredits,
		UnlimitedCredits:  p.UnlimitedCredits,
		MaxStudents:       p.MaxStudents,
		PDFExport:         p.PDFExport,
	}

	if admin {
		v.ProviderPriceIDMonthly = p.ProviderPriceIDMonthly
		v.ProviderPriceIDYearly = p.ProviderPriceIDYearly
	}

	return v
}

// PatchRequest toggles a plan.
type PatchRequest struct {
	IsActive *bool `json:"isActive"`
}

// Service serves the plan catalog.
type Service struct {
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Get(PublicPath, s.Public)

	router := app.Group(Path, auth.RequirePermission(deps.Auth, auth.PermAdminPlans))
	router.Get(handler.RouterRootPath, s.List)
	router.Post(handler.RouterRootPath, s.Create)
	router.Put("/:key", s.Update)
	router.Patch("/:key", s.Patch)

	return nil
}

// Public lists the active plans.
func (s *Service) Public(c fiber.Ctx) error {
	return s.list(c, false)
}

// List lists every plan, inactive ones included.
func (s *Service) List(c fiber.Ctx) error {
	return s.list(c, true)
}

func (s *Service) list(c fiber.Ctx, admin bool) error {
	plans, err := planctl.List(c.Context(), s.deps.DB, admin)
	if err != nil {
		return err
	}

	out := make([]View, 0, len(plans))
	for i := range plans {
		out = append(out, newView(&plans[i], admin))
	}

	return c.JSON(out)
}

// Create adds a plan.
func (s *Service) Create(c fiber.Ctx) error {
	in := new(planctl.Input)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	p, err := planctl.Create(c.Context(), s.deps.DB, in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newView(p, true))
}

// Update replaces the writable fields of a plan. The key of the path wins over the body.
func (s *Service) Update(c fiber.Ctx) error {
	in := new(planctl.Input)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	p, err := planctl.Update(c.Context(), s.deps.DB, c.Params("key"), in)
	if err != nil {
		return err
	}

	return c.JSON(newView(p, true))
}

// Patch activates or deactivates a plan. Activation requires a purchasable plan.
func (s *Service) Patch(c fiber.Ctx) error {
	in := new(PatchRequest)
	if err := handler.BindJSON(c, in); err != nil {
		return err
	}

	if in.IsActive == nil {
		return apperror.Validation("isActive is required")
	}

	if err := planctl.SetActive(c.Context(), s.deps.DB, c.Params("key"), *in.IsActive); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
