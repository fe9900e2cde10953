package server

import (
	"github.com/gofiber/fiber/v2"

	"nfe-bridge/internal/session"
	"nfe-bridge/internal/wms"
)

// New monta o app Fiber com as rotas do fluxo interativo.
func New(mgr *session.Manager, wmsCli *wms.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "nfe-bridge",
		BodyLimit: 10 * 1024 * 1024, // XML de NF-e é pequeno; 10 MB sobra
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h := NewNotaHandler(mgr, wmsCli)

	api := app.Group("/api")
	api.Post("/nfe", h.Upload)
	api.Get("/nfe", h.Consulta)
	api.Put("/nfe/itens", h.Edita)
	api.Put("/nfe/cliente", h.Cliente)
	api.Post("/nfe/enviar", h.Enviar)
	api.Post("/nfe/retransmitir", h.Retransmitir)
	api.Get("/nfe/download", h.Download)

	return app
}
