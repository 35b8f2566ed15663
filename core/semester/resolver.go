package semester

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
)

// Patcher is the part of the document store activation writes through.
type Patcher interface {
	Patch(ctx context.Context, doc string, data map[string]interface{}) error
}

// Active returns the first semester flagged active, in collection order.
func Active(sems []Semester) (Semester, bool) {
	for _, s := range sems {
		if s.Active {
			return s, true
		}
	}
	return Semester{}, false
}

// SetActive makes targetID the only active semester of uid, one document patch at a time:
// every other flagged semester is deactivated first, then the target is activated.
// Readers may briefly observe no active semester, never a dropped request.
// Overlapping calls are not serialized; they converge once every patch has been applied.
func SetActive(ctx context.Context, store Patcher, uid string, sems []Semester, targetID string) error {
	var (
		target Semester
		found  bool
		others []Semester
	)
	for _, s := range sems {
		if s.ID == targetID {
			target, found = s, true
		} else if s.Active {
			others = append(others, s)
		}
	}
	if !found {
		return errors.Wrapf(core.ErrNotFound, "semester %q", targetID)
	}
	if target.Active && len(others) == 0 {
		return nil
	}

	coll := core.SemestersPath(uid)
	for _, s := range others {
		if err := store.Patch(ctx, core.DocPath(coll, s.ID), map[string]interface{}{fieldActive: false}); err != nil {
			return errors.Wrapf(err, "deactivating semester %q", s.ID)
		}
	}
	if !target.Active {
		if err := store.Patch(ctx, core.DocPath(coll, target.ID), map[string]interface{}{fieldActive: true}); err != nil {
			return errors.Wrapf(err, "activating semester %q", target.ID)
		}
	}
	return nil
}
