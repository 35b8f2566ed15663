package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
)

const fetchTimeout = 30 * time.Second

type unrecognized struct {
	semester semester.Semester
	subject  subject.Subject
	lab      lab.LabWork
}

// statuses lists the labs of every semester of uid whose stored status is not recognized, with the closest
// known status when one is similar enough. Records are not modified.
func (cli *commandLine) statuses(uid string) error {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	store, closeStore, err := cli.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	found, total, err := auditStatuses(ctx, store, uid)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEMESTER\tSUBJECT\tLAB\tSTATUS\tSUGGESTION")
	for _, u := range found {
		suggestion := "-"
		if sug, ok := status.Suggest(u.lab.RawStatus); ok {
			suggestion = fmt.Sprintf("%s (%.2f)", sug.Status, sug.Ratio)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%q\t%s\n",
			u.semester.Label(), u.subject.Title, strconv.Itoa(u.lab.Number), u.lab.RawStatus, suggestion)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d of %d labs have an unrecognized status\n", len(found), total)
	return nil
}

func auditStatuses(ctx context.Context, store core.DocumentStore, uid string) ([]unrecognized, int, error) {
	docs, err := core.Fetch(ctx, store, core.SemestersPath(uid))
	if err != nil {
		return nil, 0, errors.Wrap(err, "fetching semesters")
	}

	var found []unrecognized
	total := 0
	for _, sem := range semester.FromDocuments(docs) {
		docs, err := core.Fetch(ctx, store, core.SubjectsPath(uid, sem.ID))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "fetching subjects of semester %s", sem.ID)
		}
		for _, subj := range subject.FromDocuments(sem.ID, docs) {
			docs, err := core.Fetch(ctx, store, core.LabsPath(uid, sem.ID, subj.ID))
			if err != nil {
				return nil, 0, errors.Wrapf(err, "fetching labs of subject %s", subj.ID)
			}
			for _, l := range lab.FromDocuments(sem.ID, subj.ID, docs) {
				total++
				if l.RawStatus != "" && !status.Recognized(l.RawStatus) {
					found = append(found, unrecognized{semester: sem, subject: subj, lab: l})
				}
			}
		}
	}
	return found, total, nil
}
