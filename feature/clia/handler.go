package clia

import (
	"errors"
	"mime/multipart"

	"clia-tracker/core/logger"
	"clia-tracker/core/reconcile"
	"clia-tracker/core/record"
	"clia-tracker/core/tabular"
	"clia-tracker/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reconciliation.
type Handler struct {
	service *Service
	maxRows int
}

// NewHandler creates a new HTTP handler. maxRows caps the rows returned per
// set unless the request overrides it.
func NewHandler(service *Service, maxRows int) *Handler {
	return &Handler{service: service, maxRows: maxRows}
}

// RegisterRoutes registers the reconcile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconcile")
	group.Post("/", h.HandleReconcile)
	group.Get("/columns", h.HandleColumns)
}

// HandleReconcile reconciles uploaded files.
//
// The multipart form carries one "baseline" file and one or more "new" files.
// Query parameters: force (skip the churn check), save (write output files),
// extra (include baseline, combined and filtered views), max_rows.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected a multipart form"})
	}
	baseFiles := form.File["baseline"]
	newFiles := form.File["new"]
	if len(baseFiles) != 1 || len(newFiles) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "form needs exactly one 'baseline' file and at least one 'new' file",
		})
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	open := func(fh *multipart.FileHeader) (Upload, error) {
		f, err := fh.Open()
		if err != nil {
			return Upload{}, err
		}
		opened = append(opened, f)
		return Upload{Name: fh.Filename, Body: f}, nil
	}

	baseline, err := open(baseFiles[0])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	inputs := make([]Upload, 0, len(newFiles))
	for _, fh := range newFiles {
		in, err := open(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		inputs = append(inputs, in)
	}

	req := Request{
		Force:  utils.ToBool(c.Query("force")),
		DryRun: !utils.ToBool(c.Query("save")),
	}
	l.Info("Reconciling uploads", zap.String("baseline", baseline.Name), zap.Int("inputs", len(inputs)))

	out, err := h.service.RunUploads(c.Context(), req, baseline, inputs)
	if err != nil {
		status := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("Reconciliation failed", zap.Error(err))
		} else {
			l.Warn("Reconciliation rejected", zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	maxRows := utils.IntOr(c.Query("max_rows"), h.maxRows)
	return c.JSON(out.Document(maxRows, utils.ToBool(c.Query("extra")), nil))
}

// HandleColumns returns the CLIA capture layout.
func (h *Handler) HandleColumns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"key_column": h.service.KeyColumn(),
		"columns":    Columns,
	})
}

// statusFor maps run errors to HTTP status codes.
func statusFor(err error) int {
	var loadErr *tabular.LoadError
	var dupErr *record.DuplicateKeyError
	switch {
	case errors.Is(err, reconcile.ErrInvariant):
		return fiber.StatusInternalServerError
	case errors.As(err, &loadErr):
		return fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrExcessiveChurn):
		return fiber.StatusConflict
	case errors.As(err, &dupErr):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
