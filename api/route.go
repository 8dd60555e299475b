package api

import (
	"context"
	"errors"
	"strings"

	"haruki-sprite-action/config"
	"haruki-sprite-action/updater"
	"haruki-sprite-action/utils"
	"haruki-sprite-action/utils/exporter"
	harukiLogger "haruki-sprite-action/utils/logger"
	"haruki-sprite-action/utils/spritecodecs/act"

	"github.com/gofiber/fiber/v3"
)

var logger = harukiLogger.NewLogger("HarukiActAPI", "INFO", nil)

func SetLogLevel(level string) {
	logger.SetLevel(level)
}

// startUpdater runs an update in the background. Replaced in tests.
var startUpdater = func(server string, payload updater.HarukiActUpdaterPayload) {
	go func() {
		assetUpdater, err := updater.NewHarukiActUpdater(context.Background(), server, config.Cfg, payload.Names)
		if err != nil {
			logger.Errorf("Failed to create updater for %s: %v", server, err)
			return
		}
		defer assetUpdater.Close()
		if _, err := assetUpdater.Run(); err != nil {
			logger.Errorf("Updater for %s failed: %v", server, err)
		}
	}()
}

// RegisterRoutes registers all API routes
func RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", healthHandler)
	app.Post("/decode", authorize, decodeHandler)
	app.Post("/update_act", authorize, updateActHandler)
}

func healthHandler(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": config.Version,
	})
}

func authorize(c fiber.Ctx) error {
	if !config.Cfg.Backend.EnableAuthorization {
		return c.Next()
	}
	if config.Cfg.Backend.AcceptUserAgentPrefix != "" {
		userAgent := c.Get("User-Agent")
		if !strings.HasPrefix(userAgent, config.Cfg.Backend.AcceptUserAgentPrefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid User-Agent",
			})
		}
	}
	if config.Cfg.Backend.AcceptAuthorizationToken != "" {
		authHeader := c.Get("Authorization")
		expectedAuth := "Bearer " + config.Cfg.Backend.AcceptAuthorizationToken
		if authHeader != expectedAuth {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid authorization token",
			})
		}
	}
	return c.Next()
}

func decodeErrorStatus(err error) int {
	switch {
	case errors.Is(err, act.ErrInvalidHeader), errors.Is(err, act.ErrTextDecode):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, act.ErrUnexpectedEndOfData):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// decodeHandler decodes the raw request body as an ACT file.
func decodeHandler(c fiber.Ctx) error {
	format, err := utils.ParseExportFormat(c.Query("format"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid format",
			"error":   err.Error(),
		})
	}
	textEncoding, err := utils.LookupTextEncoding(c.Query("encoding", config.Cfg.Decoder.TextEncoding))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid encoding",
			"error":   err.Error(),
		})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Empty request body",
		})
	}
	if limit := config.Cfg.Decoder.MaxFileSize; limit > 0 && len(body) > limit {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"message": "File too large",
		})
	}

	file, err := act.NewDecoder(textEncoding).Decode(body)
	if err != nil {
		logger.Debugf("Decode failed: %v", err)
		return c.Status(decodeErrorStatus(err)).JSON(fiber.Map{
			"message": "Failed to decode act file",
			"error":   err.Error(),
		})
	}

	data, err := exporter.Encode(file, format, c.Query("pretty") == "true")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to encode result",
			"error":   err.Error(),
		})
	}
	if format == utils.HarukiExportFormatMsgpack {
		c.Set(fiber.HeaderContentType, "application/msgpack")
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return c.Status(fiber.StatusOK).Send(data)
}

// updateActHandler starts a remote update for a configured server
func updateActHandler(c fiber.Ctx) error {
	var payload updater.HarukiActUpdaterPayload
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	serverConfig, exists := config.Cfg.Servers[payload.Server]
	if !exists {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Server not found in configuration",
		})
	}
	if !serverConfig.Enabled {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Act updater for this server is not enabled",
			"server":  payload.Server,
		})
	}

	startUpdater(payload.Server, payload)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Act updater started running",
		"server":  payload.Server,
	})
}
