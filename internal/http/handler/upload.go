package handler

import (
	"github.com/gofiber/fiber/v2"

	"channelapi/internal/model"
	"channelapi/internal/service"
	"channelapi/internal/tree"
)

type previewResponse struct {
	Message string      `json:"message"`
	Data    *tree.Value `json:"data" swaggertype:"object"`
}

// UploadPreview godoc
// @Summary   Parse an uploaded document without transforming it
// @Description  /api/upload parses XML, /api/upload/json parses JSON.
// @Tags      upload
// @Accept    multipart/form-data
// @Produce   json
// @Security  BearerAuth
// @Param     file  formData  file  true  "document"
// @Success   200   {object}  previewResponse
// @Failure   422   {object}  errorPayload
// @Router    /api/upload [post]
// @Router    /api/upload/json [post]
func UploadPreview(svc service.ChannelService, format model.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		v, err := svc.Preview(c.UserContext(), string(format), f)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(previewResponse{Message: "File processed successfully", Data: v})
	}
}
