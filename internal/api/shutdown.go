package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Shutdown stops accepting connections and waits for in-flight requests,
// which may be routing inline, until ctx is done.
func Shutdown(ctx context.Context, app *fiber.App) error {
	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
