package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/grade"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type gradeApi struct {
	now func() time.Time
}

func registerGradeAPI(g *echo.Group, _ *Deps) {
	api := gradeApi{now: time.Now}

	g.GET("/dashboard", api.dashboard)
	g.GET("/grades", api.report)
	g.GET("/grades/export", api.export)
}

func (api *gradeApi) dashboard(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Mirror.Snapshot()
	return ctx.JSON(http.StatusOK, grade.NewDashboard(snap.Active, snap.Subjects, snap.Labs, api.now()))
}

func (api *gradeApi) report(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Mirror.Snapshot()
	return ctx.JSON(http.StatusOK, grade.Report(snap.Subjects, snap.Labs))
}

func (api *gradeApi) export(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap := sess.Mirror.Snapshot()
	active, ok := snap.ActiveSemester()
	if !ok {
		return errNoActiveSemester
	}

	var buf bytes.Buffer
	if err := grade.WriteXLSX(&buf, active.Label(), grade.Report(snap.Subjects, snap.Labs)); err != nil {
		return errors.Wrap(err, "exporting grades")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grades.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
