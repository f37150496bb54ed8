package server

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZstdMiddleware decompresses zstd request bodies and compresses responses for
// clients that accept zstd. Whitelisted paths pass through untouched.
func ZstdMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{healthPath}
	}

	return func(c *fiber.Ctx) error {
		if slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		if strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
			if body := c.Body(); len(body) > 0 {
				decoder, err := zstd.NewReader(bytes.NewReader(body))
				if err != nil {
					log.Err(err).Msg("failed to create zstd decoder")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(struct{}{}, fmt.Errorf("decompress zstd body: %w", err)))
				}
				defer decoder.Close()

				decompressed, err := io.ReadAll(decoder)
				if err != nil {
					log.Err(err).Msg("failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(struct{}{}, fmt.Errorf("decompress zstd body: %w", err)))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if !strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			return nil
		}
		responseBody := c.Response().Body()
		if len(responseBody) == 0 {
			return nil
		}

		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			log.Err(err).Msg("failed to create zstd encoder")
			return nil
		}
		defer encoder.Close()

		compressed := encoder.EncodeAll(responseBody, nil)
		c.Response().SetBody(compressed)
		c.Set(fiber.HeaderContentEncoding, "zstd")
		c.Set(fiber.HeaderVary, fiber.HeaderAcceptEncoding)

		log.Debug().
			Int("original_size", len(responseBody)).
			Int("compressed_size", len(compressed)).
			Msg("response body compressed")
		return nil
	}
}
