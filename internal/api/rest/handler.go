package rest

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"disk-guider/internal/container"
	"disk-guider/internal/domain/entity"
)

// GuiderHandler HTTP-поверхность управления и отображения гидера
type GuiderHandler struct {
	services *container.Container
	metrics  http.Handler
	logger   *logrus.Logger
}

// NewGuiderHandler создает новый обработчик. metrics может быть nil.
func NewGuiderHandler(services *container.Container, metrics http.Handler, logger *logrus.Logger) *GuiderHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GuiderHandler{
		services: services,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *GuiderHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.CheckHealth)
		api.GET("/status", h.GetStatus)
		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/hfd", h.GetHFD)
		api.GET("/parameters", h.GetParameters)
		api.PUT("/parameters", h.UpdateParameters)
		api.POST("/pause", h.SetPaused)
		api.POST("/roi", h.SetRoi)
		api.POST("/sharpness", h.ToggleSharpness)
		api.POST("/visuals", h.SetVisuals)
		api.POST("/capture", h.SetCapture)
		api.POST("/camera", h.SetCamera)
		api.POST("/frames", h.UploadFrame)
		api.POST("/select", h.Select)
		api.GET("/preview", h.GetPreview)
	}
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}
}

type toggleRequest struct {
	Value *bool `json:"value" binding:"required"`
}

type selectRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CheckHealth проверка работоспособности
func (h *GuiderHandler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": h.services.Tracker.Session(),
	})
}

// GetStatus текущее состояние трекинга
func (h *GuiderHandler) GetStatus(c *gin.Context) {
	tracker := h.services.Tracker
	state := tracker.State()

	body := gin.H{
		"status":              tracker.StatusMessage(),
		"detected":            state.Detected,
		"detection_streak":    state.DetectionStreak,
		"paused":              state.Paused,
		"roi_active":          state.ROIActive,
		"measuring_sharpness": state.MeasuringSharpness,
		"session":             tracker.Session(),
	}
	if state.Detected {
		body["object"] = tracker.DetectionStatus()
	}
	if result, ok := tracker.LastResult(); ok {
		result.Contour = nil
		body["last_result"] = result
	}
	if advisory, ok := tracker.LastAdvisory(); ok {
		body["advisory"] = gin.H{"level": advisory.Level, "message": advisory.Message}
	}
	c.JSON(http.StatusOK, body)
}

// GetSnapshot данные для отрисовки внутренних признаков детектора
func (h *GuiderHandler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Tracker.VisualizationSnapshot())
}

// GetHFD значение радиуса или резкости; null пока неизвестно
func (h *GuiderHandler) GetHFD(c *gin.Context) {
	tracker := h.services.Tracker
	var value *float64
	if v := tracker.HFD(); !math.IsNaN(v) {
		value = &v
	}
	c.JSON(http.StatusOK, gin.H{
		"label":  tracker.HFDLabel(),
		"value":  value,
		"pixels": tracker.PixelMetrics(),
	})
}

// GetParameters текущие параметры обнаружения
func (h *GuiderHandler) GetParameters(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Tracker.Parameters())
}

// UpdateParameters применяет новые параметры обнаружения
func (h *GuiderHandler) UpdateParameters(c *gin.Context) {
	params := h.services.Tracker.Parameters()
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied, err := h.services.Tracker.SetParameters(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.WithFields(logrus.Fields{
		"min_radius": applied.MinRadius,
		"max_radius": applied.MaxRadius,
		"threshold":  applied.HighThreshold,
		"roi":        applied.RoiEnabled,
	}).Info("detection parameters updated")
	c.JSON(http.StatusOK, applied)
}

// SetPaused приостанавливает или возобновляет обнаружение
func (h *GuiderHandler) SetPaused(c *gin.Context) {
	value, ok := bindToggle(c)
	if !ok {
		return
	}
	h.services.Tracker.SetDetectionPaused(value)
	c.JSON(http.StatusOK, gin.H{"paused": h.services.Tracker.DetectionPaused()})
}

// SetRoi включает или выключает ROI
func (h *GuiderHandler) SetRoi(c *gin.Context) {
	value, ok := bindToggle(c)
	if !ok {
		return
	}
	h.services.Tracker.SetRoiEnabled(value)
	c.JSON(http.StatusOK, gin.H{"roi_enabled": h.services.Tracker.Parameters().RoiEnabled})
}

// ToggleSharpness переключает режим измерения резкости
func (h *GuiderHandler) ToggleSharpness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"measuring_sharpness": h.services.Tracker.ToggleSharpnessMode()})
}

// SetVisuals включает или выключает отображение внутренних признаков
func (h *GuiderHandler) SetVisuals(c *gin.Context) {
	value, ok := bindToggle(c)
	if !ok {
		return
	}
	h.services.Tracker.SetVisualElements(value)
	c.JSON(http.StatusOK, gin.H{"visual_elements": value})
}

// SetCapture сообщает о старте или остановке захвата
func (h *GuiderHandler) SetCapture(c *gin.Context) {
	value, ok := bindToggle(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"need_update": h.services.Tracker.NotifyCaptureStateChanged(value)})
}

// SetCamera сообщает о подключении или отключении камеры
func (h *GuiderHandler) SetCamera(c *gin.Context) {
	value, ok := bindToggle(c)
	if !ok {
		return
	}
	h.services.Tracker.NotifyCameraConnectionChanged(value)
	c.JSON(http.StatusOK, gin.H{"connected": value})
}

// UploadFrame принимает кадр (multipart поле "frame") и запускает обнаружение
func (h *GuiderHandler) UploadFrame(c *gin.Context) {
	file, err := c.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open frame"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Errorf("failed to read frame: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read frame"})
		return
	}

	autoSelect, _ := strconv.ParseBool(c.Query("auto"))
	out, err := h.services.Frames.ProcessFrame(c.Request.Context(), data, autoSelect)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// Select выбирает цель по точке на последнем кадре
func (h *GuiderHandler) Select(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.services.Frames.SelectAt(c.Request.Context(), req.X, req.Y)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// GetPreview PNG последнего кадра с наложенным диском
func (h *GuiderHandler) GetPreview(c *gin.Context) {
	data, err := h.services.Frames.Preview()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (h *GuiderHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrUnsupportedFrame):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrNoFrame), errors.Is(err, entity.ErrDetectionPaused):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrFrameTooLarge), errors.Is(err, entity.ErrTooManyContourPoints):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindToggle(c *gin.Context) (bool, bool) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false, false
	}
	return *req.Value, true
}
