package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"regportal/internal/notify"
	"regportal/internal/registration"
)

const maxRegisterBody = 1 << 20

func (h *Handler) register(c *gin.Context) {
	if c.ContentType() != binding.MIMEJSON {
		h.countRegistration("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}

	var payload map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxRegisterBody))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload == nil {
		h.countRegistration("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}

	rec, err := h.svc.Register(c.Request.Context(), registration.SubmissionFromPayload(payload))
	if err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			h.countRegistration("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
			return
		}
		h.countRegistration("error")
		h.internalError(c, "register.append_failed", err)
		return
	}
	h.countRegistration("ok")

	h.log.InfoContext(c.Request.Context(), "register.stored",
		slog.String("registration_id", rec.ID),
		slog.String("course", rec.Course),
	)

	if h.queue != nil {
		if err := notify.Publish(c.Request.Context(), h.queue, rec); err != nil {
			h.log.WarnContext(c.Request.Context(), "register.notify_publish_failed",
				slog.String("registration_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Registration successful!",
		"id":        rec.ID,
		"timestamp": rec.FormattedTimestamp(),
	})
}
