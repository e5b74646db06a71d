// Package api exposes the conversion pipeline over HTTP.
package api

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/cardlens/statement-converter/internal/config"
	"github.com/cardlens/statement-converter/internal/models"
	"github.com/cardlens/statement-converter/internal/pipeline"
	"github.com/cardlens/statement-converter/internal/rules"
	"github.com/cardlens/statement-converter/internal/writer"
)

// Handler serves the conversion API on top of a shared pipeline Converter.
type Handler struct {
	conv *pipeline.Converter
	cfg  *config.Config
	log  *zap.Logger
}

// NewHandler builds the API handler.
func NewHandler(conv *pipeline.Converter, cfg *config.Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{conv: conv, cfg: cfg, log: log}
}

// App assembles the fiber application: panic recovery, request logging,
// CORS, and the API routes.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "statement-converter",
		// Room for multipart framing on top of the PDF itself.
		BodyLimit:             int(h.cfg.MaxFileSizeBytes) + 1<<20,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(h.requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: h.cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h.Register(app)
	return app
}

// Register mounts the API routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/api/health", h.Health)
	app.Get("/api/banks", h.Banks)
	app.Post("/api/convert", h.Convert)
}

func (h *Handler) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		h.log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "engine": "fiber"})
}

// bankInfo is the wire shape of one supported issuer.
type bankInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Tier     int    `json:"tier"`
	Locale   string `json:"locale"`
	Currency string `json:"currency"`
}

// Banks lists the issuers with dedicated or locale-primed parsing support.
func (h *Handler) Banks(c *fiber.Ctx) error {
	banks := rules.Banks()
	out := make([]bankInfo, 0, len(banks))
	for _, b := range banks {
		out = append(out, bankInfo{
			ID:       string(b.ID),
			Name:     b.Name,
			Tier:     b.Tier,
			Locale:   b.Locale,
			Currency: b.Currency,
		})
	}
	return c.JSON(fiber.Map{"banks": out})
}

// Convert accepts one statement PDF as multipart form data and responds with
// the conversion result: JSON by default, a CSV attachment with format=csv.
// CSV is only produced when there are rows to render; fatal failures always
// come back as JSON.
func (h *Handler) Convert(c *fiber.Ctx) error {
	file, err := c.FormFile("statement")
	if err != nil {
		// Older clients upload under "file".
		if file, err = c.FormFile("file"); err != nil {
			return reject(c, fiber.StatusBadRequest, "no PDF uploaded; use form field 'statement'")
		}
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return reject(c, fiber.StatusBadRequest, "only PDF files are supported")
	}

	src, err := file.Open()
	if err != nil {
		return reject(c, fiber.StatusBadRequest, "uploaded file could not be read")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return reject(c, fiber.StatusBadRequest, "uploaded file could not be read")
	}

	res := h.conv.Convert(c.UserContext(), data, file.Filename)

	if c.Query("format") == "csv" && (res.Success || res.Partial()) {
		return h.sendCSV(c, res, file.Filename)
	}
	return c.Status(statusFor(res)).JSON(res)
}

func (h *Handler) sendCSV(c *fiber.Ctx, res *models.ConversionResult, filename string) error {
	w := &writer.Writer{IncludeMetadata: c.Query("metadata") != "false"}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(w.Render(res.Data))
}

// reject writes a request-level error in the result wire shape, so clients
// parse one response format regardless of where the failure happened.
func reject(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.ConversionResult{
		Success: false,
		Message: msg,
		Errors:  []string{msg},
	})
}

// statusFor maps a conversion result to its HTTP status. Partial
// extractions stay 200; callers inspect the success flag.
func statusFor(res *models.ConversionResult) int {
	if res.Success {
		return fiber.StatusOK
	}
	switch res.Code {
	case models.CodeFileTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case models.CodeServerBusy:
		return fiber.StatusServiceUnavailable
	case models.CodeParsingTimeout:
		return fiber.StatusGatewayTimeout
	case models.CodeCorruptOrImagePDF, models.CodeUnsupportedBank:
		return fiber.StatusUnprocessableEntity
	case models.CodeExtractionPartial:
		return fiber.StatusOK
	}
	return fiber.StatusInternalServerError
}
