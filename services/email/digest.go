package emailsvc

import (
	"bytes"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/grade"
	"github.com/trezcool/studytrack/core/mirror"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewDigest builds the progress digest of a mirrored user, with the grade sheet attached.
func NewDigest(to mail.Address, snap mirror.Snapshot, now time.Time) (*core.EmailMessage, error) {
	dash := grade.NewDashboard(snap.Active, snap.Subjects, snap.Labs, now)
	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Semester progress",
		TemplateName: "digest",
		TemplateData: dash,
	}
	if dash.Semester == "" || len(snap.Subjects) == 0 {
		return msg, nil
	}

	var buf bytes.Buffer
	if err := grade.WriteXLSX(&buf, dash.Semester, grade.Report(snap.Subjects, snap.Labs)); err != nil {
		return nil, errors.Wrap(err, "exporting grades")
	}
	if err := msg.Attach(&buf, "grades.xlsx", xlsxContentType); err != nil {
		return nil, errors.Wrap(err, "attaching grades")
	}
	return msg, nil
}
