package handlers

import (
	"errors"
	"net/http"
	"strings"

	"brewtemp/internal/models"
	"brewtemp/internal/service"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gin-gonic/gin"
)

const (
	statusOK         = "ok"
	statusRelaysSet  = "relays_set"
	statusSettingsOK = "settings_saved"

	errGetState        = "failed to load state"
	errSetRelays       = "failed to switch relays"
	errSaveSettings    = "failed to save settings"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps service sentinels to HTTP codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrTempSetOutOfRange),
		errors.Is(err, service.ErrInvalidRampHours),
		errors.Is(err, service.ErrRelayConflict):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrModeForbids),
		errors.Is(err, service.ErrSafetyInterlock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RelaysRequest is the payload of POST /device/relays.
type RelaysRequest struct {
	Heat bool `json:"heat" example:"true"`
	Cool bool `json:"cool" example:"false"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      statusOK,
		"version":     versioninfo.Short(),
		"boot_reason": h.boot.Reason,
		"config_mode": h.boot.ConfigMode,
		"revision":    h.boot.Revision,
	})
}

// @Summary      Get device state
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.DeviceState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/device/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "device_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Switch relays
// @Description  Heat and cool are mutually exclusive and must be allowed by the mode and the temperature limits
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   RelaysRequest  true  "Relay payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/device/relays [post]
// @Security     BearerAuth
func (h *Handler) setRelays(c *gin.Context) {
	var req RelaysRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	st, err := h.services.Device.SetRelays(c.Request.Context(), models.RelayCommand{Heat: req.Heat, Cool: req.Cool})
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logAndJSONError(c, code, errSetRelays, "device_set_relays_failed", err, "heat", req.Heat, "cool", req.Cool)
			return
		}
		if h.log != nil {
			h.log.Infow("device_set_relays_rejected", "err", err, "heat", req.Heat, "cool", req.Cool)
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRelaysSet, "state": st})
}

// @Summary      Get device configuration
// @Tags         device
// @Produce      json
// @Success      200  {object}  config.DeviceConfiguration
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/config [get]
// @Security     BearerAuth
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Device.Config().Redacted())
}

// @Summary      Get settings
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.Settings
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Device.Settings(c.Request.Context()).Redacted())
}

// @Summary      Update settings
// @Description  Partial update; absent fields are left unchanged
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   models.SettingsPatch  true  "Settings patch"
// @Success      200   {object}  map[string]interface{}  "status, settings"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/device/settings [put]
// @Security     BearerAuth
func (h *Handler) putSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if ok := h.bindJSONOrBadRequest(c, &patch); !ok {
		return
	}
	if patch.Mode != nil {
		m := models.Mode(strings.ToUpper(strings.TrimSpace(string(*patch.Mode))))
		patch.Mode = &m
	}

	s, err := h.services.Device.ApplySettings(c.Request.Context(), patch, service.SourceAPI)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logAndJSONError(c, code, errSaveSettings, "device_apply_settings_failed", err)
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSettingsOK, "settings": s.Redacted()})
}
