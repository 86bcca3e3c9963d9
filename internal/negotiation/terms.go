// internal/negotiation/terms.go
package negotiation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

// Optional terms a patch may remove through its Clear list.
const (
	ClearStayNights        = "stay_nights"
	ClearTravelDateFrom    = "travel_date_from"
	ClearTravelDateTo      = "travel_date_to"
	ClearPreferredDateFrom = "preferred_date_from"
	ClearPreferredDateTo   = "preferred_date_to"
	ClearPreferredMonths   = "preferred_months"
)

var clearable = []string{
	ClearStayNights,
	ClearTravelDateFrom,
	ClearTravelDateTo,
	ClearPreferredDateFrom,
	ClearPreferredDateTo,
	ClearPreferredMonths,
}

// TermsPatch is a partial terms update. Nil fields keep their current value;
// fields named in Clear are removed.
type TermsPatch struct {
	CollaborationType    *models.CollaborationType       `json:"collaboration_type"`
	FreeStayMinNights    *int                            `json:"free_stay_min_nights"`
	FreeStayMaxNights    *int                            `json:"free_stay_max_nights"`
	StayNights           *int                            `json:"stay_nights"`
	PaidAmount           *float64                        `json:"paid_amount"`
	DiscountPercentage   *int                            `json:"discount_percentage"`
	TravelDateFrom       *models.Date                    `json:"travel_date_from"`
	TravelDateTo         *models.Date                    `json:"travel_date_to"`
	PreferredDateFrom    *models.Date                    `json:"preferred_date_from"`
	PreferredDateTo      *models.Date                    `json:"preferred_date_to"`
	PreferredMonths      []string                        `json:"preferred_months"`
	PlatformDeliverables models.PlatformDeliverablesList `json:"platform_deliverables"`
	Clear                []string                        `json:"clear,omitempty"`
}

func (p TermsPatch) IsEmpty() bool {
	return p.CollaborationType == nil &&
		p.FreeStayMinNights == nil &&
		p.FreeStayMaxNights == nil &&
		p.StayNights == nil &&
		p.PaidAmount == nil &&
		p.DiscountPercentage == nil &&
		p.TravelDateFrom == nil &&
		p.TravelDateTo == nil &&
		p.PreferredDateFrom == nil &&
		p.PreferredDateTo == nil &&
		p.PreferredMonths == nil &&
		p.PlatformDeliverables == nil &&
		len(p.Clear) == 0
}

// ValidateClear rejects unknown names in Clear and names that are also set
// by the same patch.
func (p TermsPatch) ValidateClear() error {
	var fields []apperror.FieldError
	for i, name := range p.Clear {
		path := fmt.Sprintf("clear[%d]", i)
		switch {
		case !slices.Contains(clearable, name):
			fields = append(fields, apperror.FieldError{
				Field:   path,
				Message: path + " must be one of " + strings.Join(clearable, ", "),
			})
		case p.sets(name):
			fields = append(fields, apperror.FieldError{
				Field:   path,
				Message: name + " cannot be set and cleared in the same proposal",
			})
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid collaboration terms", fields...)
	}
	return nil
}

func (p TermsPatch) sets(name string) bool {
	switch name {
	case ClearStayNights:
		return p.StayNights != nil
	case ClearTravelDateFrom:
		return p.TravelDateFrom != nil
	case ClearTravelDateTo:
		return p.TravelDateTo != nil
	case ClearPreferredDateFrom:
		return p.PreferredDateFrom != nil
	case ClearPreferredDateTo:
		return p.PreferredDateTo != nil
	case ClearPreferredMonths:
		return len(p.PreferredMonths) > 0
	}
	return false
}

// Apply merges the patch onto current and returns the result; current is not
// modified. Switching the collaboration type drops the fields of the old type.
func (p TermsPatch) Apply(current models.CollaborationTerms) models.CollaborationTerms {
	next := current.Clone()

	if p.CollaborationType != nil {
		t := *p.CollaborationType
		if next.CollaborationType == nil || *next.CollaborationType != t {
			clearTypeFields(&next, t)
		}
		next.CollaborationType = &t
	}

	patch := p.Clone()
	if patch.FreeStayMinNights != nil {
		next.FreeStayMinNights = patch.FreeStayMinNights
	}
	if patch.FreeStayMaxNights != nil {
		next.FreeStayMaxNights = patch.FreeStayMaxNights
	}
	if patch.StayNights != nil {
		next.StayNights = patch.StayNights
	}
	if patch.PaidAmount != nil {
		next.PaidAmount = patch.PaidAmount
	}
	if patch.DiscountPercentage != nil {
		next.DiscountPercentage = patch.DiscountPercentage
	}
	if patch.TravelDateFrom != nil {
		next.TravelDateFrom = patch.TravelDateFrom
	}
	if patch.TravelDateTo != nil {
		next.TravelDateTo = patch.TravelDateTo
	}
	if patch.PreferredDateFrom != nil {
		next.PreferredDateFrom = patch.PreferredDateFrom
	}
	if patch.PreferredDateTo != nil {
		next.PreferredDateTo = patch.PreferredDateTo
	}
	if patch.PreferredMonths != nil {
		if len(patch.PreferredMonths) == 0 {
			next.PreferredMonths = nil
		} else {
			next.PreferredMonths = patch.PreferredMonths
		}
	}
	if patch.PlatformDeliverables != nil {
		next.PlatformDeliverables = patch.PlatformDeliverables
	}

	for _, name := range patch.Clear {
		switch name {
		case ClearStayNights:
			next.StayNights = nil
		case ClearTravelDateFrom:
			next.TravelDateFrom = nil
		case ClearTravelDateTo:
			next.TravelDateTo = nil
		case ClearPreferredDateFrom:
			next.PreferredDateFrom = nil
		case ClearPreferredDateTo:
			next.PreferredDateTo = nil
		case ClearPreferredMonths:
			next.PreferredMonths = nil
		}
	}
	return next
}

// Clone deep-copies the patch so applied terms never alias caller memory.
func (p TermsPatch) Clone() TermsPatch {
	terms := models.CollaborationTerms{
		CollaborationType:    p.CollaborationType,
		FreeStayMinNights:    p.FreeStayMinNights,
		FreeStayMaxNights:    p.FreeStayMaxNights,
		StayNights:           p.StayNights,
		PaidAmount:           p.PaidAmount,
		DiscountPercentage:   p.DiscountPercentage,
		TravelDateFrom:       p.TravelDateFrom,
		TravelDateTo:         p.TravelDateTo,
		PreferredDateFrom:    p.PreferredDateFrom,
		PreferredDateTo:      p.PreferredDateTo,
		PreferredMonths:      p.PreferredMonths,
		PlatformDeliverables: p.PlatformDeliverables,
	}.Clone()

	out := TermsPatch{
		CollaborationType:    terms.CollaborationType,
		FreeStayMinNights:    terms.FreeStayMinNights,
		FreeStayMaxNights:    terms.FreeStayMaxNights,
		StayNights:           terms.StayNights,
		PaidAmount:           terms.PaidAmount,
		DiscountPercentage:   terms.DiscountPercentage,
		TravelDateFrom:       terms.TravelDateFrom,
		TravelDateTo:         terms.TravelDateTo,
		PreferredDateFrom:    terms.PreferredDateFrom,
		PreferredDateTo:      terms.PreferredDateTo,
		PlatformDeliverables: terms.PlatformDeliverables,
	}
	if terms.PreferredMonths != nil {
		out.PreferredMonths = []string(terms.PreferredMonths)
	}
	if p.Clear != nil {
		out.Clear = slices.Clone(p.Clear)
	}
	return out
}

// Terms turns the patch into a complete set of terms, as used at creation.
func (p TermsPatch) Terms() models.CollaborationTerms {
	return p.Apply(models.CollaborationTerms{})
}

func clearTypeFields(t *models.CollaborationTerms, keep models.CollaborationType) {
	if keep != models.CollaborationTypeFreeStay {
		t.FreeStayMinNights = nil
		t.FreeStayMaxNights = nil
	}
	if keep != models.CollaborationTypePaid {
		t.PaidAmount = nil
	}
	if keep != models.CollaborationTypeDiscount {
		t.DiscountPercentage = nil
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the custom tags and struct rules used by the
// terms types on v. Every validator that walks a terms payload needs them.
func RegisterValidations(v *validator.Validate) {
	v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return models.Platform(fl.Field().String()).Valid()
	})
	v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		return models.ValidMonth(fl.Field().String())
	})
	v.RegisterValidation("collaboration_type", func(fl validator.FieldLevel) bool {
		return models.CollaborationType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		cents := fl.Field().Float() * 100
		return math.Abs(cents-math.Round(cents)) < 1e-6
	})
	v.RegisterStructValidation(termsStructLevel, models.CollaborationTerms{})
}

func termsStructLevel(sl validator.StructLevel) {
	t := sl.Current().Interface().(models.CollaborationTerms)

	typeName := "untyped"
	if t.CollaborationType != nil {
		typeName = string(*t.CollaborationType)
	}
	is := func(ct models.CollaborationType) bool {
		return t.CollaborationType != nil && *t.CollaborationType == ct
	}

	if is(models.CollaborationTypeFreeStay) {
		if t.FreeStayMinNights == nil {
			sl.ReportError(t.FreeStayMinNights, "free_stay_min_nights", "FreeStayMinNights", "required_for_type", typeName)
		}
		if t.FreeStayMaxNights == nil {
			sl.ReportError(t.FreeStayMaxNights, "free_stay_max_nights", "FreeStayMaxNights", "required_for_type", typeName)
		}
		if t.FreeStayMinNights != nil && t.FreeStayMaxNights != nil {
			if *t.FreeStayMaxNights < *t.FreeStayMinNights {
				sl.ReportError(t.FreeStayMaxNights, "free_stay_max_nights", "FreeStayMaxNights", "gtefield", "free_stay_min_nights")
			} else if t.StayNights != nil && (*t.StayNights < *t.FreeStayMinNights || *t.StayNights > *t.FreeStayMaxNights) {
				sl.ReportError(t.StayNights, "stay_nights", "StayNights", "nights_range", "")
			}
		}
	} else if t.FreeStayMinNights != nil || t.FreeStayMaxNights != nil {
		if t.FreeStayMinNights != nil {
			sl.ReportError(t.FreeStayMinNights, "free_stay_min_nights", "FreeStayMinNights", "excluded_for_type", typeName)
		}
		if t.FreeStayMaxNights != nil {
			sl.ReportError(t.FreeStayMaxNights, "free_stay_max_nights", "FreeStayMaxNights", "excluded_for_type", typeName)
		}
	}

	if is(models.CollaborationTypePaid) {
		if t.PaidAmount == nil {
			sl.ReportError(t.PaidAmount, "paid_amount", "PaidAmount", "required_for_type", typeName)
		}
	} else if t.PaidAmount != nil {
		sl.ReportError(t.PaidAmount, "paid_amount", "PaidAmount", "excluded_for_type", typeName)
	}

	if is(models.CollaborationTypeDiscount) {
		if t.DiscountPercentage == nil {
			sl.ReportError(t.DiscountPercentage, "discount_percentage", "DiscountPercentage", "required_for_type", typeName)
		}
	} else if t.DiscountPercentage != nil {
		sl.ReportError(t.DiscountPercentage, "discount_percentage", "DiscountPercentage", "excluded_for_type", typeName)
	}

	if t.TravelDateFrom != nil && t.TravelDateTo != nil && t.TravelDateTo.Before(t.TravelDateFrom.Time) {
		sl.ReportError(t.TravelDateTo, "travel_date_to", "TravelDateTo", "gtefield", "travel_date_from")
	}
	if t.PreferredDateFrom != nil && t.PreferredDateTo != nil && t.PreferredDateTo.Before(t.PreferredDateFrom.Time) {
		sl.ReportError(t.PreferredDateTo, "preferred_date_to", "PreferredDateTo", "gtefield", "preferred_date_from")
	}

	if len(t.PlatformDeliverables) == 0 {
		sl.ReportError(t.PlatformDeliverables, "platform_deliverables", "PlatformDeliverables", "required", "")
	}
}

// ValidateTerms checks a complete set of terms. requireType additionally
// demands a collaboration type, which binding terms must always carry.
func ValidateTerms(t models.CollaborationTerms, requireType bool) error {
	var fields []apperror.FieldError
	if requireType && t.CollaborationType == nil {
		fields = append(fields, apperror.FieldError{
			Field:   "collaboration_type",
			Message: "collaboration_type is required",
		})
	}

	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperror.Internal("terms validation failed", err)
		}
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   FieldPath(fe),
				Message: FieldMessage(fe),
			})
		}
	}

	if len(fields) > 0 {
		return apperror.Validation("invalid collaboration terms", fields...)
	}
	return nil
}

// FieldPath returns the json path of a failed field without the root struct name.
func FieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// FieldMessage renders a readable message for the tags used on terms and requests.
func FieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_for_type":
		return fmt.Sprintf("%s is required for %s collaborations", field, fe.Param())
	case "excluded_for_type":
		return fmt.Sprintf("%s must not be set for %s collaborations", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "cents":
		return field + " must have at most two decimal places"
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	case "nights_range":
		return field + " must be between free_stay_min_nights and free_stay_max_nights"
	case "platform":
		return field + " must be one of Instagram, TikTok, YouTube, Facebook, Content Package, Custom"
	case "month":
		return field + " must be a three-letter month abbreviation such as Jan"
	case "collaboration_type":
		return field + " must be one of Free Stay, Paid, Discount"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
