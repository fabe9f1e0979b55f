package handler

import (
	"context"
	"errors"
	"net/http"

	"estate-suggest/internal/model"
	"estate-suggest/internal/service"
	"estate-suggest/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// User-facing messages. Diagnostics stay in the server log.
const (
	msgConfiguration  = "Mistral API key не найден."
	msgInvalidQuery   = "Пожалуйста, опишите ваши требования к недвижимости более подробно. Например: 'Двухкомнатная квартира в Краснодаре до 10 млн ₽'."
	msgUpstream       = "Не удалось получить ответ от ИИ. Попробуйте позже."
	msgMalformed      = "ИИ вернул некорректные данные. Попробуйте еще раз."
	msgArrayForObject = "ИИ вернул некорректный формат данных. Попробуйте переформулировать запрос."
	msgNoSuggestions  = "ИИ не смог подобрать подходящие варианты. Попробуйте уточнить ваш запрос."
	msgFallback       = "Произошла ошибка при обработке запроса."
)

// Suggester produces property suggestions for a free-text prompt
type Suggester interface {
	Suggest(ctx context.Context, prompt string) (*model.SuggestionResponse, error)
}

// SuggestHandler serves the AI suggestion endpoint
type SuggestHandler struct {
	suggester Suggester
	initErr   error
	log       *zap.Logger
}

// NewSuggestHandler creates the handler. initErr is the error the service
// constructor returned; when set, every request fails with a configuration error.
func NewSuggestHandler(suggester Suggester, initErr error, log *zap.Logger) *SuggestHandler {
	return &SuggestHandler{
		suggester: suggester,
		initErr:   initErr,
		log:       log.With(zap.String("component", "suggest_handler")),
	}
}

// Suggest handles POST /api/ai-suggestion and POST /api/v1/suggestions
func (h *SuggestHandler) Suggest(c *gin.Context) {
	requestID := c.GetString(ContextRequestIDKey)

	if h.initErr != nil || h.suggester == nil {
		err := h.initErr
		if err == nil {
			err = errors.New("suggestion service is not configured")
		}
		h.log.Error("suggestion service unavailable", zap.String("request_id", requestID), zap.Error(err))
		fail(c, http.StatusInternalServerError, msgConfiguration)
		return
	}

	var req model.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("invalid request body", zap.String("request_id", requestID), zap.Error(err))
		fail(c, http.StatusBadRequest, msgInvalidQuery)
		return
	}

	ctx := service.WithRequestID(c.Request.Context(), requestID)
	resp, err := h.suggester.Suggest(ctx, req.Prompt)
	if err != nil {
		h.logFailure(requestID, err)
		status, message := errorResponse(err)
		fail(c, status, message)
		return
	}

	c.JSON(http.StatusOK, model.SuggestResult{Success: true, Data: resp})
}

// errorResponse maps an error kind to a status code and user-facing message
func errorResponse(err error) (int, string) {
	var se *service.SuggestError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, msgFallback
	}

	switch se.Kind {
	case service.KindConfiguration:
		return http.StatusInternalServerError, msgConfiguration
	case service.KindInvalidQuery:
		return http.StatusBadRequest, msgInvalidQuery
	case service.KindUpstream, service.KindNetwork:
		return http.StatusInternalServerError, msgUpstream
	case service.KindMalformedOutput:
		if se.ArrayForObject {
			return http.StatusInternalServerError, msgArrayForObject
		}
		return http.StatusInternalServerError, msgMalformed
	case service.KindNoSuggestions:
		return http.StatusInternalServerError, msgNoSuggestions
	default:
		return http.StatusInternalServerError, msgFallback
	}
}

func (h *SuggestHandler) logFailure(requestID string, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("kind", service.KindOf(err).String()),
	}

	var upstream *service.UpstreamError
	if errors.As(err, &upstream) {
		fields = append(fields,
			zap.Int("upstream_status", upstream.StatusCode),
			zap.String("upstream_body", utils.CompactJSON([]byte(upstream.Body))),
		)
	}
	var se *service.SuggestError
	if errors.As(err, &se) && len(se.Violations) > 0 {
		fields = append(fields, zap.Strings("violations", se.Violations))
	}
	fields = append(fields, zap.Error(err))

	if service.KindOf(err) == service.KindInvalidQuery {
		h.log.Info("suggestion rejected", fields...)
		return
	}
	h.log.Error("suggestion failed", fields...)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, model.SuggestFailure{Success: false, Error: message})
}
