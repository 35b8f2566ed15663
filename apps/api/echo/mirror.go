package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/mirror"
)

type MirrorResponse struct {
	mirror.Snapshot
	Subscriptions int `json:"subscriptions"`
}

// keepAlive is how often an idle stream sends a comment line.
const keepAlive = 30 * time.Second

type mirrorApi struct {
	deps *Deps
}

func registerMirrorAPI(g *echo.Group, deps *Deps) {
	api := mirrorApi{deps: deps}

	mg := g.Group("/mirror")
	mg.GET("", api.retrieve)
	mg.GET("/stream", api.stream)
	mg.POST("/refresh", api.refresh)
}

func (api *mirrorApi) retrieve(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Mirror.Snapshot()
	return ctx.JSON(http.StatusOK, MirrorResponse{Snapshot: snap, Subscriptions: snap.States.Subscriptions()})
}

// refresh reopens the subscriptions that failed.
func (api *mirrorApi) refresh(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	sess.Mirror.Refresh()
	snap := sess.Mirror.Snapshot()
	return ctx.JSON(http.StatusOK, MirrorResponse{Snapshot: snap, Subscriptions: snap.States.Subscriptions()})
}

// stream sends the current snapshot, then every change, as server-sent events.
// A slow client only receives the latest snapshot.
func (api *mirrorApi) stream(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	events := make(chan mirror.Event, 1)
	push := func(ev mirror.Event) {
		for {
			select {
			case events <- ev:
				return
			default:
			}
			select {
			case <-events: // drop the stale one
			default:
			}
		}
	}
	remove := sess.Mirror.Observe(push)
	defer remove()
	push(mirror.Event{Snapshot: sess.Mirror.Snapshot()})

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return errors.Wrap(err, "writing keep-alive")
			}
			res.Flush()
		case ev := <-events:
			if err := writeEvent(res, ev); err != nil {
				return errors.Wrap(err, "writing event")
			}
			res.Flush()
		case <-done:
			return nil
		}
	}
}

func writeEvent(res *echo.Response, ev mirror.Event) error {
	if ev.Err != nil {
		msg, _ := json.Marshal(echo.Map{"error": ev.Err.Error()})
		if _, err := fmt.Fprintf(res, "event: error\ndata: %s\n\n", msg); err != nil {
			return err
		}
	}
	data, err := json.Marshal(MirrorResponse{Snapshot: ev.Snapshot, Subscriptions: ev.Snapshot.States.Subscriptions()})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", data)
	return err
}
