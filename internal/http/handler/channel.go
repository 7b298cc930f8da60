package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"channelapi/internal/http/middleware"
	"channelapi/internal/service"
	"channelapi/internal/tree"
)

type transformResponse struct {
	Message          string      `json:"message"`
	TransformationID string      `json:"transformation_id"`
	Data             *tree.Value `json:"data" swaggertype:"object"`
}

// ListChannels godoc
// @Summary   List the caller's channels
// @Tags      channels
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}   model.Channel
// @Failure   401  {object}  errorPayload
// @Router    /api/channels [get]
func ListChannels(svc service.ChannelService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(items)
	}
}

// CreateChannel godoc
// @Summary   Define a channel
// @Tags      channels
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      service.CreateChannelInput  true  "channel definition"
// @Success   201   {object}  model.Channel
// @Failure   400   {object}  errorPayload
// @Router    /api/channels [post]
func CreateChannel(svc service.ChannelService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateChannelInput
		if err := c.BodyParser(&in); err != nil {
			// Mapping paths are validated while decoding.
			if errors.Is(err, tree.ErrInvalidPath) {
				return domainError(c, err)
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		ch, err := svc.Create(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	}
}

// GetChannel godoc
// @Summary   Get a channel
// @Tags      channels
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "channel id"
// @Success   200  {object}  model.Channel
// @Failure   403  {object}  errorPayload
// @Failure   404  {object}  errorPayload
// @Router    /api/channels/{id} [get]
func GetChannel(svc service.ChannelService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ch, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(ch)
	}
}

// DeleteChannel godoc
// @Summary   Delete a channel and its history
// @Tags      channels
// @Security  BearerAuth
// @Param     id   path  string  true  "channel id"
// @Success   204
// @Failure   403  {object}  errorPayload
// @Failure   404  {object}  errorPayload
// @Router    /api/channels/{id} [delete]
func DeleteChannel(svc service.ChannelService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return domainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// TransformDocument godoc
// @Summary   Run a document through a channel
// @Tags      channels
// @Accept    multipart/form-data
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      string  true  "channel id"
// @Param     file  formData  file    true  "source document"
// @Success   200   {object}  transformResponse
// @Failure   403   {object}  errorPayload
// @Failure   404   {object}  errorPayload
// @Failure   422   {object}  errorPayload
// @Router    /api/channels/{id}/transform [post]
func TransformDocument(svc service.ChannelService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		tr, err := svc.Transform(c.UserContext(), middleware.UserID(c), id, f)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(transformResponse{
			Message:          "Transformation successful",
			TransformationID: tr.ID,
			Data:             tr.TargetDocument,
		})
	}
}
