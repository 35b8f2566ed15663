package subject

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

func (svc *Service) Create(ctx context.Context, uid, semesterID string, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	id, err := svc.store.Add(ctx, core.SubjectsPath(uid, semesterID), ns.document())
	if err != nil {
		return Subject{}, errors.Wrap(err, "adding subject")
	}
	return Subject{
		ID:          id,
		SemesterID:  semesterID,
		Title:       ns.Title,
		Teacher:     ns.Teacher,
		ControlType: ns.ControlType,
		IconURL:     ns.IconURL,
		Modules:     []Module{},
	}, nil
}

func (svc *Service) Update(ctx context.Context, uid string, orig Subject, us UpdateSubject) error {
	if err := us.Validate(orig); err != nil {
		return err
	}
	data := us.document()
	if len(data) == 0 {
		return nil
	}
	doc := core.DocPath(core.SubjectsPath(uid, orig.SemesterID), orig.ID)
	return errors.Wrap(svc.store.Patch(ctx, doc, data), "patching subject")
}

// SaveModules replaces the module list of the subject.
func (svc *Service) SaveModules(ctx context.Context, uid string, subj Subject, in []ModuleInput) ([]Module, error) {
	mods, err := cleanModules(in)
	if err != nil {
		return nil, err
	}
	doc := core.DocPath(core.SubjectsPath(uid, subj.SemesterID), subj.ID)
	if err := svc.store.Patch(ctx, doc, map[string]interface{}{fieldModules: modulesDocument(mods)}); err != nil {
		return nil, errors.Wrap(err, "saving modules")
	}
	return mods, nil
}

func (svc *Service) Remove(ctx context.Context, uid, semesterID, id string) error {
	return errors.Wrap(svc.store.Remove(ctx, core.DocPath(core.SubjectsPath(uid, semesterID), id)), "removing subject")
}

// Find returns the subject with the given id.
func Find(subjs []Subject, id string) (Subject, error) {
	for _, s := range subjs {
		if s.ID == id {
			return s, nil
		}
	}
	return Subject{}, errors.Wrapf(core.ErrNotFound, "subject %q", id)
}
