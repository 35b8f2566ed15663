package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/mirror"
)

const contextLabKey = "lab"

type DefenseResponse struct {
	ObtainedScore float64 `json:"obtainedScore"`
}

type labApi struct {
	svc *lab.Service
}

func registerLabAPI(g *echo.Group, svc *lab.Service) {
	api := labApi{svc: svc}

	lg := g.Group("/subjects/:sid/labs")
	lg.POST("", api.create)

	// detail endpoints
	dg := lg.Group("/:id", labMiddleware)
	dg.PATCH("", api.update)
	dg.PUT("/status", api.changeStatus)
	dg.POST("/defend", api.defend)
	dg.DELETE("", api.destroy)
}

// labMiddleware looks the lab up in the mirror.
func labMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, err := getContextSession(ctx)
		if err != nil {
			return err
		}
		l, err := sess.Mirror.Snapshot().Lab(ctx.Param("sid"), ctx.Param("id"))
		if err != nil {
			return err
		}
		ctx.Set(contextLabKey, l)
		return next(ctx)
	}
}

func contextLab(ctx echo.Context) (lab.LabWork, error) {
	l, ok := ctx.Get(contextLabKey).(lab.LabWork)
	if !ok {
		return lab.LabWork{}, errors.New("lab not found in echo.Context")
	}
	return l, nil
}

func (api *labApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Mirror.Snapshot()
	subj, err := snap.Subject(ctx.Param("sid"))
	if err != nil {
		return err
	}
	var data lab.NewLab
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLab")
	}

	l, err := api.svc.Add(ctx.Request().Context(), sess.UserID, subj.SemesterID, subj.ID, existingLabs(snap, subj.ID), data)
	if err != nil {
		return errors.Wrap(err, "adding lab")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func existingLabs(snap mirror.Snapshot, subjectID string) []lab.LabWork {
	return snap.Labs[subjectID]
}

func (api *labApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	l, err := contextLab(ctx)
	if err != nil {
		return err
	}
	var data lab.UpdateLab
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLab")
	}

	if err := api.svc.Update(ctx.Request().Context(), sess.UserID, l, data); err != nil {
		return errors.Wrap(err, "updating lab")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *labApi) changeStatus(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	l, err := contextLab(ctx)
	if err != nil {
		return err
	}
	var data lab.StatusChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}

	if err := api.svc.ChangeStatus(ctx.Request().Context(), sess.UserID, l, data); err != nil {
		return errors.Wrap(err, "changing lab status")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *labApi) defend(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	l, err := contextLab(ctx)
	if err != nil {
		return err
	}
	var data lab.Defense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Defense")
	}

	score, err := api.svc.Defend(ctx.Request().Context(), sess.UserID, l, data)
	if err != nil {
		return errors.Wrap(err, "defending lab")
	}
	return ctx.JSON(http.StatusOK, DefenseResponse{ObtainedScore: score})
}

func (api *labApi) destroy(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	l, err := contextLab(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Remove(ctx.Request().Context(), sess.UserID, l); err != nil {
		return errors.Wrap(err, "removing lab")
	}
	return ctx.NoContent(http.StatusNoContent)
}
