package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// Charger 由 charger.Mc3000 实现
type Charger interface {
	Snapshot() charger.Snapshot
	Refresh(ctx context.Context) error
	StartCharge(ctx context.Context, channel int) error
	StopCharge(ctx context.Context, channel int) error
}

// ChargerHandler 充电器查询与控制
type ChargerHandler struct {
	dev    Charger
	logger *zap.Logger
}

func NewChargerHandler(dev Charger, logger *zap.Logger) *ChargerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargerHandler{dev: dev, logger: logger}
}

// ChannelView 单通道视图
type ChannelView struct {
	Index     int                 `json:"index"`
	ModeLabel string              `json:"mode_label"`
	Working   bool                `json:"working"`
	Data      *mc3000.ChannelData `json:"data"`
}

// GetCharger 查询设备快照
// @Summary 查询充电器快照
// @Description 返回上一轮刷新得到的设备状态，不触发蓝牙通信
// @Tags 充电器
// @Produce json
// @Success 200 {object} charger.Snapshot
// @Router /api/charger [get]
func (h *ChargerHandler) GetCharger(c *gin.Context) {
	c.JSON(http.StatusOK, h.dev.Snapshot())
}

// GetChannel 查询单通道
// @Summary 查询通道遥测
// @Tags 充电器
// @Produce json
// @Param index path int true "通道号(0-3)"
// @Success 200 {object} ChannelView
// @Failure 400 {object} map[string]interface{} "通道号无效"
// @Failure 404 {object} map[string]interface{} "尚未读取"
// @Router /api/charger/channels/{index} [get]
func (h *ChargerHandler) GetChannel(c *gin.Context) {
	idx, ok := channelParam(c)
	if !ok {
		return
	}
	data, ok := h.dev.Snapshot().Channel(idx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "channel not read yet"})
		return
	}
	c.JSON(http.StatusOK, ChannelView{
		Index:     idx,
		ModeLabel: data.Mode.Label(data.Type),
		Working:   data.IsWorking(),
		Data:      data,
	})
}

// Refresh 立即刷新
// @Summary 立即刷新设备状态
// @Tags 充电器
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} charger.Snapshot
// @Failure 502 {object} map[string]interface{} "链路错误"
// @Router /api/charger/refresh [post]
func (h *ChargerHandler) Refresh(c *gin.Context) {
	if err := h.dev.Refresh(c.Request.Context()); err != nil {
		h.writeError(c, "refresh", -1, err)
		return
	}
	c.JSON(http.StatusOK, h.dev.Snapshot())
}

// StartCharge 启动通道
// @Summary 启动通道充电（按设备上当前程序）
// @Tags 充电器
// @Produce json
// @Security ApiKeyAuth
// @Param index path int true "通道号(0-3)"
// @Success 200 {object} map[string]interface{} "已发送"
// @Router /api/charger/channels/{index}/start [post]
func (h *ChargerHandler) StartCharge(c *gin.Context) {
	h.control(c, "start", h.dev.StartCharge)
}

// StopCharge 停止通道
// @Summary 停止通道
// @Tags 充电器
// @Produce json
// @Security ApiKeyAuth
// @Param index path int true "通道号(0-3)"
// @Success 200 {object} map[string]interface{} "已发送"
// @Router /api/charger/channels/{index}/stop [post]
func (h *ChargerHandler) StopCharge(c *gin.Context) {
	h.control(c, "stop", h.dev.StopCharge)
}

func (h *ChargerHandler) control(c *gin.Context, action string, fn func(context.Context, int) error) {
	idx, ok := channelParam(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), idx); err != nil {
		h.writeError(c, action, idx, err)
		return
	}
	h.logger.Info("charger control sent",
		zap.String("action", action),
		zap.Int("channel", idx),
		zap.String("remote_addr", c.ClientIP()))
	// 设备应答不携带结果，"sent" 仅表示命令已写出
	c.JSON(http.StatusOK, gin.H{"channel": idx, "action": action, "status": "sent"})
}

func (h *ChargerHandler) writeError(c *gin.Context, action string, idx int, err error) {
	code, kind := http.StatusBadGateway, "device_error"
	switch {
	case charger.IsInvalidArgument(err):
		code, kind = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, charger.ErrNotConnected):
		code, kind = http.StatusServiceUnavailable, "not_connected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, kind = http.StatusGatewayTimeout, "timeout"
	}
	h.logger.Warn("charger request failed",
		zap.String("action", action),
		zap.Int("channel", idx),
		zap.Int("status", code),
		zap.Error(err))
	c.JSON(code, gin.H{"error": kind, "message": err.Error()})
}

// channelParam 解析路径中的通道号；失败时已写入 400
func channelParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 || idx >= mc3000.ChannelCount {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_argument",
			"message": "channel index must be 0-3",
		})
		return 0, false
	}
	return idx, true
}
