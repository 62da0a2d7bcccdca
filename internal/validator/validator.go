package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

var quizIdentifierPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Validator is the main validator instance that combines struct tags and
// question bank rules
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	v := &Validator{structValidator: structValidator}
	v.questionValidator = NewQuestionValidator(v)
	return v
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("quiz_identifier", validateQuizIdentifier)

	// Options may only carry the flag that the question type reads
	validate.RegisterStructValidation(validateOptionFlags, models.Question{})

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}

func validateQuizIdentifier(fl validator.FieldLevel) bool {
	return quizIdentifierPattern.MatchString(fl.Field().String())
}

func validateOptionFlags(sl validator.StructLevel) {
	question := sl.Current().Interface().(models.Question)

	for _, opt := range question.Options {
		var foreign bool
		switch question.Type {
		case models.SingleChoice:
			foreign = opt.IsRelevant || opt.IsNegative
		case models.MultiSelectPositive:
			foreign = opt.IsCorrect || opt.IsNegative
		case models.MultiSelectNegative:
			foreign = opt.IsCorrect || opt.IsRelevant
		case models.Matching:
			foreign = opt.IsCorrect || opt.IsRelevant || opt.IsNegative
		}
		if foreign {
			sl.ReportError(question.Options, "options", "Options", "option_flags", opt.ID)
			return
		}
	}
}
