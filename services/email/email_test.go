package emailsvc

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/mirror"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
	"github.com/trezcool/studytrack/services/logger"
)

func testConfig() *core.Config {
	return &core.Config{AppName: "StudyTrack", Email: core.EmailConfig{DefaultFromEmail: "noreply@example.com"}}
}

func snapshot() mirror.Snapshot {
	sem := semester.Semester{ID: "s1", Number: "3", Title: "Осінь", Active: true, EndDate: "2024-12-31"}
	return mirror.Snapshot{
		UserID:    "u1",
		Semesters: []semester.Semester{sem},
		Active:    &sem,
		Subjects:  []subject.Subject{{ID: "db", SemesterID: "s1", Title: "Бази даних"}},
		Labs: map[string][]lab.LabWork{
			"db": {
				{ID: "l1", SubjectID: "db", MaxScore: 10, ObtainedScore: null.Float64From(8), Status: status.Defended},
				{ID: "l2", SubjectID: "db", MaxScore: 5, Status: status.NotStarted},
			},
		},
	}
}

func TestNewDigest(t *testing.T) {
	now := time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC)
	msg, err := NewDigest(mail.Address{Address: "student@example.com"}, snapshot(), now)
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "grades.xlsx", msg.Attachments[0].Filename)
	assert.Equal(t, xlsxContentType, msg.Attachments[0].ContentType)

	require.NoError(t, msg.Render("StudyTrack"))
	assert.Contains(t, msg.TextContent, "Completed labs: 1/2 (50%)")
	assert.Contains(t, msg.TextContent, "Бази даних: 8/15 (53%)")
	assert.Contains(t, msg.TextContent, "10 days left")
	assert.Contains(t, msg.HTMLContent, "Бази даних")
}

func TestNewDigest_NoActiveSemester(t *testing.T) {
	msg, err := NewDigest(mail.Address{Address: "student@example.com"}, mirror.Snapshot{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, msg.Attachments)
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig(), logsvc.NewNopLogger())

	msg, err := NewDigest(mail.Address{Name: "Student", Address: "student@example.com"}, snapshot(), time.Now())
	require.NoError(t, err)
	svc.SendMessages(msg, &core.EmailMessage{Subject: "nobody"})

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Semester progress", sent[0].Subject)

	body, err := svc.compose(sent[0])
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [StudyTrack] Semester progress")
	assert.Contains(t, body, "multipart/mixed")
	assert.True(t, strings.Contains(body, "filename=grades.xlsx"))
}
