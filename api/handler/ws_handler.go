package handler

import (
	"errors"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// Ping answers "ping" text frames with "pong!" and ignores anything else.
func Ping(log logrus.FieldLogger) echo.HandlerFunc {
	return func(c echo.Context) error {
		websocket.Handler(func(ws *websocket.Conn) {
			defer ws.Close()
			for {
				var msg string
				if err := websocket.Message.Receive(ws, &msg); err != nil {
					if !errors.Is(err, io.EOF) {
						log.WithError(err).Debug("websocket receive failed")
					}
					return
				}
				if msg != "ping" {
					continue
				}
				if err := websocket.Message.Send(ws, "pong!"); err != nil {
					log.WithError(err).Debug("websocket send failed")
					return
				}
			}
		}).ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
