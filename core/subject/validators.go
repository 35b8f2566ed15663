package subject

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
)

var (
	scoreNotNumberText = "must be a number"
	scoreNegativeText  = "must be greater than or equal to 0"
	scoreAboveMaxText  = "must not exceed the module maximum (%g)"
	errInvalidModules  = errors.New("invalid module scores")
)

// cleanModules turns user input into modules. Blank names get their default, blank scores read as 0;
// anything else that is not a non-negative number is reported per field, as is an obtained score above its max.
func cleanModules(in []ModuleInput) ([]Module, error) {
	mods := make([]Module, 0, len(in))
	var flds []core.FieldError

	score := func(i int, name string, raw interface{}) float64 {
		if s, ok := raw.(string); raw == nil || (ok && strings.TrimSpace(s) == "") {
			return 0
		}
		field := fmt.Sprintf("modules[%d].%s", i, name)
		f, ok := core.Float(raw)
		if !ok {
			flds = append(flds, core.FieldError{Field: field, Error: scoreNotNumberText})
			return 0
		}
		if f < 0 {
			flds = append(flds, core.FieldError{Field: field, Error: scoreNegativeText})
			return 0
		}
		return f
	}

	for i, mi := range in {
		name := core.CleanString(mi.Name)
		if name == "" {
			name = DefaultModuleName(i)
		}
		nflds := len(flds)
		max := score(i, fieldModuleMax, mi.Max)
		obtained := score(i, fieldModuleObtained, mi.Obtained)
		if len(flds) == nflds && obtained > max {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("modules[%d].%s", i, fieldModuleObtained),
				Error: fmt.Sprintf(scoreAboveMaxText, max),
			})
		}
		mods = append(mods, Module{Name: name, Max: max, Obtained: obtained})
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(errInvalidModules, flds...)
	}
	return mods, nil
}

func modulesDocument(mods []Module) []interface{} {
	out := make([]interface{}, 0, len(mods))
	for _, m := range mods {
		out = append(out, map[string]interface{}{
			fieldModuleName:     m.Name,
			fieldModuleMax:      m.Max,
			fieldModuleObtained: m.Obtained,
		})
	}
	return out
}
