package semester

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
)

type Service struct {
	store core.DocumentStore
}

func NewService(store core.DocumentStore) *Service {
	return &Service{store: store}
}

func (svc *Service) Create(ctx context.Context, uid string, ns NewSemester) (Semester, error) {
	if err := ns.Validate(); err != nil {
		return Semester{}, err
	}
	id, err := svc.store.Add(ctx, core.SemestersPath(uid), ns.document())
	if err != nil {
		return Semester{}, errors.Wrap(err, "adding semester")
	}
	return Semester{
		ID:        id,
		Number:    ns.Number,
		Title:     ns.Title,
		StartDate: ns.StartDate,
		EndDate:   ns.EndDate,
	}, nil
}

// Update patches orig with the provided fields.
func (svc *Service) Update(ctx context.Context, uid string, orig Semester, us UpdateSemester) error {
	if err := us.Validate(orig); err != nil {
		return err
	}
	data := us.document()
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(svc.store.Patch(ctx, core.DocPath(core.SemestersPath(uid), orig.ID), data), "patching semester")
}

// Remove deletes the semester document only; the manager reacts to the resulting collection.
func (svc *Service) Remove(ctx context.Context, uid, id string) error {
	return errors.Wrap(svc.store.Remove(ctx, core.DocPath(core.SemestersPath(uid), id)), "removing semester")
}

// SetActive switches activation to id among sems, the current contents of the collection.
func (svc *Service) SetActive(ctx context.Context, uid string, sems []Semester, id string) error {
	return SetActive(ctx, svc.store, uid, sems, id)
}

// Find returns the semester with the given id.
func Find(sems []Semester, id string) (Semester, error) {
	for _, s := range sems {
		if s.ID == id {
			return s, nil
		}
	}
	return Semester{}, errors.Wrapf(core.ErrNotFound, "semester %q", id)
}
