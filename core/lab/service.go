package lab

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/status"
)

var nowFunc = time.Now

type Service struct {
	store core.DocumentStore
}

func NewService(store core.DocumentStore) *Service {
	return &Service{store: store}
}

func docPath(uid string, l LabWork) string {
	return core.DocPath(core.LabsPath(uid, l.SemesterID, l.SubjectID), l.ID)
}

// Add creates a lab numbered after the highest number among existing, the current labs of the subject.
func (svc *Service) Add(ctx context.Context, uid, semesterID, subjectID string, existing []LabWork, nl NewLab) (LabWork, error) {
	max, err := parseMaxScore(nl.MaxScore)
	if err != nil {
		return LabWork{}, err
	}
	l := LabWork{
		SemesterID: semesterID,
		SubjectID:  subjectID,
		Number:     NextNumber(existing),
		Topic:      core.CleanString(nl.Topic),
		MaxScore:   max,
		Status:     status.NotStarted,
		RawStatus:  string(status.NotStarted),
		CreatedAt:  nowFunc().UTC().Truncate(time.Millisecond),
	}
	id, err := svc.store.Add(ctx, core.LabsPath(uid, semesterID, subjectID), map[string]interface{}{
		fieldNumber:        l.Number,
		fieldTopic:         l.Topic,
		fieldMaxScore:      l.MaxScore,
		fieldObtainedScore: nil,
		fieldStatus:        string(l.Status),
		fieldCreatedAt:     core.Millis(l.CreatedAt),
	})
	if err != nil {
		return LabWork{}, errors.Wrap(err, "adding lab")
	}
	l.ID = id
	return l, nil
}

func (svc *Service) Update(ctx context.Context, uid string, orig LabWork, ul UpdateLab) error {
	data := make(map[string]interface{})
	if ul.Topic != nil {
		data[fieldTopic] = core.CleanString(*ul.Topic)
	}
	if ul.MaxScore != nil {
		max, err := parseMaxScore(ul.MaxScore)
		if err != nil {
			return err
		}
		if orig.ObtainedScore.Valid && orig.ObtainedScore.Float64 > max {
			return core.NewValidationError(errInvalidLab, core.FieldError{Field: fieldMaxScore, Error: maxBelowObtainedText})
		}
		data[fieldMaxScore] = max
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(svc.store.Patch(ctx, docPath(uid, orig), data), "patching lab")
}

// ChangeStatus stores the canonical form of sc.Status.
func (svc *Service) ChangeStatus(ctx context.Context, uid string, l LabWork, sc StatusChange) error {
	if err := core.Validate.Struct(sc); err != nil {
		return err
	}
	data := map[string]interface{}{fieldStatus: string(status.Normalize(sc.Status))}
	return errors.Wrap(svc.store.Patch(ctx, docPath(uid, l), data), "changing lab status")
}

// Defend records the obtained score and marks the lab defended in a single patch.
func (svc *Service) Defend(ctx context.Context, uid string, l LabWork, d Defense) (float64, error) {
	score, err := parseDefenseScore(d.Score, l.MaxScore)
	if err != nil {
		return 0, err
	}
	data := map[string]interface{}{
		fieldObtainedScore: score,
		fieldStatus:        string(status.Defended),
	}
	if err := svc.store.Patch(ctx, docPath(uid, l), data); err != nil {
		return 0, errors.Wrap(err, "defending lab")
	}
	return score, nil
}

func (svc *Service) Remove(ctx context.Context, uid string, l LabWork) error {
	return errors.Wrap(svc.store.Remove(ctx, docPath(uid, l)), "removing lab")
}

// Find returns the lab with the given id.
func Find(labs []LabWork, id string) (LabWork, error) {
	for _, l := range labs {
		if l.ID == id {
			return l, nil
		}
	}
	return LabWork{}, errors.Wrapf(core.ErrNotFound, "lab %q", id)
}
