package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/subject"
)

// ModulesRequest replaces the modules of a subject.
type ModulesRequest struct {
	Modules []subject.ModuleInput `json:"modules"`
}

type subjectApi struct {
	svc *subject.Service
}

func registerSubjectAPI(g *echo.Group, svc *subject.Service) {
	api := subjectApi{svc: svc}

	sg := g.Group("/subjects")
	sg.POST("", api.create)
	sg.PATCH("/:id", api.update)
	sg.PUT("/:id/modules", api.saveModules)
	sg.DELETE("/:id", api.destroy)
}

func (api *subjectApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	active, ok := sess.Mirror.Snapshot().ActiveSemester()
	if !ok {
		return errNoActiveSemester
	}
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}

	subj, err := api.svc.Create(ctx.Request().Context(), sess.UserID, active.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *subjectApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	orig, err := sess.Mirror.Snapshot().Subject(ctx.Param("id"))
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}

	if err := api.svc.Update(ctx.Request().Context(), sess.UserID, orig, data); err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) saveModules(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	subj, err := sess.Mirror.Snapshot().Subject(ctx.Param("id"))
	if err != nil {
		return err
	}
	var data ModulesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModulesRequest")
	}

	mods, err := api.svc.SaveModules(ctx.Request().Context(), sess.UserID, subj, data.Modules)
	if err != nil {
		return errors.Wrap(err, "saving modules")
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	active, ok := sess.Mirror.Snapshot().ActiveSemester()
	if !ok {
		return errNoActiveSemester
	}
	if err := api.svc.Remove(ctx.Request().Context(), sess.UserID, active.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}
