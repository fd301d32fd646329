package middleware

import (
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// リクエストごとのloggerをcontextに入れて、終わったら1行ログを出す
// RequestIDミドルウェアの後に置く
func RequestLogger(lg *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqLg := lg.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
			)
			c.SetRequest(req.WithContext(zctx.Base(req.Context(), reqLg)))

			err := next(c)
			if err != nil {
				//echoのエラーハンドラに渡してstatusを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			if id, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.Int64("user_id", id))
			}

			switch {
			case status >= 500:
				reqLg.Error("Request", append(fields, zap.Error(err))...)
			case status >= 400:
				reqLg.Warn("Request", fields...)
			default:
				reqLg.Info("Request", fields...)
			}
			return nil
		}
	}
}
