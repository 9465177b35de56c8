package http

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// tagVersioner lo implementan cache.RedisRevalidator y cache.MemoryRevalidator.
type tagVersioner interface {
	Version(ctx context.Context, companyID, tag string) (int64, error)
}

// CacheTag emite un ETag débil derivado de la versión de la etiqueta, la empresa y la URL,
// y responde 304 si el cliente ya tiene esa versión. Solo aplica a GET.
// Sin versión disponible (Redis caído) o sin permiso de lectura la petición sigue sin caché.
func CacheTag(versions tagVersioner, tag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		tc, ok := GetTenant(c)
		if !ok || !tc.Can(permission.Module(tag), permission.View) {
			return c.Next()
		}
		v, err := versions.Version(c.UserContext(), tc.CompanyID, tag)
		if err != nil {
			return c.Next()
		}
		etag := weakETag(tc.CompanyID, tag, v, c.OriginalURL())
		c.Set(fiber.HeaderCacheControl, "private, no-cache")
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Set(fiber.HeaderETag, etag)
			return c.SendStatus(fiber.StatusNotModified)
		}
		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderETag, etag)
		}
		return nil
	}
}

func weakETag(companyID, tag string, version int64, url string) string {
	h := xxhash.New()
	_, _ = h.WriteString(companyID)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(tag)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(url)
	return `W/"` + strconv.FormatInt(version, 10) + "-" + strconv.FormatUint(h.Sum64(), 16) + `"`
}
