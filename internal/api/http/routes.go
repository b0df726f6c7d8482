package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/geo"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. The API
// is the view-layer collaborator: it consumes snapshots and adds no
// semantics of its own.
func RegisterRoutes(app *fiber.App, service *city.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "citypulse",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"cities": geo.KnownCities(),
		})
	})

	v1.Get("/city/snapshot", func(c *fiber.Ctx) error {
		req, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, loc, err := service.SelectCity(c.UserContext(), req.Name, nil)
		if err != nil {
			if errors.Is(err, geo.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "city not found")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to resolve city location")
		}

		return c.JSON(fiber.Map{
			"city":     req.Name,
			"location": loc,
			"snapshot": snap,
		})
	})
}

// cityQuery holds query parameters identifying a city.
type cityQuery struct {
	Name string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{Name: c.Query("name")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
