package handler

import (
	"fmt"
	"path"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"channelapi/internal/http/middleware"
	"channelapi/internal/service"
)

// ListTransformations godoc
// @Summary   Transformation history of a channel
// @Tags      transformations
// @Produce   json
// @Security  BearerAuth
// @Param     id      path      string  true   "channel id"
// @Param     limit   query     int     false  "page size"  default(10)
// @Param     offset  query     int     false  "offset"     default(0)
// @Success   200     {object}  service.TransformationListResult
// @Failure   403     {object}  errorPayload
// @Router    /api/channels/{id}/transformations [get]
func ListTransformations(svc service.TransformationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), middleware.UserID(c), id, limit, offset)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(res)
	}
}

// GetTransformation godoc
// @Summary   Get a transformation record
// @Tags      transformations
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "transformation id"
// @Success   200  {object}  model.Transformation
// @Failure   404  {object}  errorPayload
// @Router    /api/transformations/{id} [get]
func GetTransformation(svc service.TransformationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tr, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(tr)
	}
}

// DownloadTransformation godoc
// @Summary   Pre-signed download URL of the rendered document
// @Tags      transformations
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "transformation id"
// @Success   200  {object}  service.DownloadLink
// @Failure   404  {object}  errorPayload
// @Router    /api/transformations/{id}/download [get]
func DownloadTransformation(svc service.TransformationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.DownloadURL(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(link)
	}
}

// StreamArtifact godoc
// @Summary   Rendered document of a completed transformation
// @Tags      transformations
// @Produce   application/json,application/xml
// @Security  BearerAuth
// @Param     id   path      string  true  "transformation id"
// @Success   200  {file}    file
// @Failure   404  {object}  errorPayload
// @Router    /api/transformations/{id}/artifact [get]
func StreamArtifact(svc service.TransformationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.OpenArtifact(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return domainError(c, err)
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(info.Key)))
		// fasthttp closes rc once the body is written
		return c.SendStream(rc, int(info.Size))
	}
}

// GetStats godoc
// @Summary   Dashboard figures of the caller
// @Tags      transformations
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  model.TransformationStats
// @Router    /api/stats [get]
func GetStats(svc service.TransformationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(stats)
	}
}
