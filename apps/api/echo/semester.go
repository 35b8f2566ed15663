package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/semester"
)

type semesterApi struct {
	svc *semester.Service
}

func registerSemesterAPI(g *echo.Group, svc *semester.Service) {
	api := semesterApi{svc: svc}

	sg := g.Group("/semesters")
	sg.POST("", api.create)
	sg.PATCH("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/activate", api.activate)
}

func (api *semesterApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data semester.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}

	sem, err := api.svc.Create(ctx.Request().Context(), sess.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *semesterApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	orig, err := semester.Find(sess.Mirror.Snapshot().Semesters, ctx.Param("id"))
	if err != nil {
		return err
	}
	var data semester.UpdateSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}

	if err := api.svc.Update(ctx.Request().Context(), sess.UserID, orig, data); err != nil {
		return errors.Wrap(err, "updating semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *semesterApi) destroy(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Remove(ctx.Request().Context(), sess.UserID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *semesterApi) activate(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	sems := sess.Mirror.Snapshot().Semesters
	if err := api.svc.SetActive(ctx.Request().Context(), sess.UserID, sems, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "activating semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}
