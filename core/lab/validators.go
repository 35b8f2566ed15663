package lab

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/status"
)

var (
	errInvalidLab     = errors.New("invalid lab")
	errInvalidDefense = errors.New("invalid defense score")

	maxScorePositiveText = "the maximum score must be greater than 0"
	maxBelowObtainedText = "the maximum score cannot be lower than the obtained score"

	canonStatusTag  = "canonstatus"
	canonStatusText = fmt.Sprintf("{0} must be one of: %q, %q, %q, %q", status.NotStarted, status.InProgress, status.Done, status.Defended)

	notDefendedTag  = "notdefended"
	notDefendedText = "a lab is marked as defended by recording its defense score"
)

func init() {
	_ = core.Validate.RegisterValidation(canonStatusTag, canonStatusValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, canonStatusTag, canonStatusText)

	_ = core.Validate.RegisterValidation(notDefendedTag, notDefendedValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, notDefendedTag, notDefendedText)
}

// canonStatusValidation accepts any recognized status variant.
func canonStatusValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return status.Recognized(s)
	}
	return false
}

func notDefendedValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return !status.IsDefended(s)
	}
	return false
}

// parseMaxScore reads a maximum score, which must be a positive number.
func parseMaxScore(raw interface{}) (float64, error) {
	max, err := core.ParseScore(raw)
	if err == nil && max <= 0 {
		err = errors.New(maxScorePositiveText)
	}
	if err != nil {
		return 0, core.NewValidationError(errInvalidLab, core.FieldError{Field: fieldMaxScore, Error: err.Error()})
	}
	return max, nil
}

// parseDefenseScore reads the score of a defense, which must lie in [0, max].
func parseDefenseScore(raw interface{}, max float64) (float64, error) {
	score, err := core.ParseScore(raw)
	if err == nil && (score < 0 || score > max) {
		err = errors.Errorf("the score must be between 0 and %s", formatScore(max))
	}
	if err != nil {
		return 0, core.NewValidationError(errInvalidDefense, core.FieldError{Field: "score", Error: err.Error()})
	}
	return score, nil
}

func formatScore(f float64) string {
	return fmt.Sprintf("%g", f)
}
