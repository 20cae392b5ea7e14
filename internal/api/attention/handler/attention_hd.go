package attentionHandler

import (
	"encoding/base64"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"FocusGolang/internal/api/attention"
	contextPkg "FocusGolang/pkg/context"
	"FocusGolang/pkg/handlerUtil"
	"FocusGolang/pkg/log"
)

func (h *AttentionHandler) StartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := h.attentionService.StartSession(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": session.ID,
	}).Info("Study session created")

	return errHandler.HandleSuccess(ctx, fiber.StatusCreated, attention.StartSessionResponse{
		Data: session,
	})
}

func (h *AttentionHandler) EndSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")
	purge := ctx.QueryBool("purge")

	if err := h.attentionService.EndSession(c, sessionID, purge); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "end_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
}

// ProcessFrame ingests one frame synchronously: the response carries the
// finished metric record for exactly this frame. The frame arrives either
// as a multipart "frame" file with a "captured_at" form field, or as the
// JSON body with base64 image bytes.
func (h *AttentionHandler) ProcessFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")

	var frameBytes []byte
	capturedAt := time.Now().UTC()

	file, err := ctx.FormFile("frame")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing frame file upload")

		if err := h.utils.ValidateFrameUpload(file); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_frame_upload")
		}

		fileContent, err := file.Open()
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
		}
		defer fileContent.Close()

		frameBytes, err = io.ReadAll(fileContent)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
		}

		if raw := ctx.FormValue("captured_at"); raw != "" {
			ms, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errHandler.Handle(ctx, requestID, attention.ErrBadRequest, ctx.Path(), "parse_captured_at")
			}
			capturedAt = attention.ParseCapturedAt(ms)
		}
	} else {
		var req attention.ProcessFrameRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		frameBytes, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return errHandler.Handle(ctx, requestID, attention.ErrMalformedFrame, ctx.Path(), "decode_base64")
		}
		capturedAt = attention.ParseCapturedAt(req.CapturedAt)
	}

	record, _, err := h.attentionService.ProcessFrame(c, sessionID, frameBytes, capturedAt)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, attention.ProcessFrameResponse{
			Data: record,
		})
	}
}

func (h *AttentionHandler) GetRecentMetrics(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")
	limit := ctx.QueryInt("limit")

	records, err := h.attentionService.GetRecentMetrics(c, sessionID, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_recent_metrics")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, attention.MetricsResponse{
		Data: records,
	})
}

func (h *AttentionHandler) GetTimeSeries(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")

	records, err := h.attentionService.GetTimeSeries(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_time_series")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, attention.MetricsResponse{
		Data: records,
	})
}

func (h *AttentionHandler) GetAggregate(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")

	aggregate, err := h.attentionService.GetAggregate(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_aggregate")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, attention.AggregateResponse{
		Data: aggregate,
	})
}

func (h *AttentionHandler) GetEvents(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	sessionID := ctx.Params("sessionId")

	events, err := h.attentionService.GetEvents(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_events")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, attention.EventsResponse{
		Data: events,
	})
}
