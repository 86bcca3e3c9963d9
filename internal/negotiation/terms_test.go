package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.From(err)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	fields, ok := appErr.Details["fields"].([]apperror.FieldError)
	require.True(t, ok)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names
}

func instagramPost(quantity int) models.PlatformDeliverablesList {
	return models.PlatformDeliverablesList{
		{Platform: models.PlatformInstagram, Deliverables: []models.DeliverableSpec{{Type: "Instagram Post", Quantity: quantity}}},
	}
}

func TestValidateTerms(t *testing.T) {
	freeStay := models.CollaborationTypeFreeStay
	paid := models.CollaborationTypePaid
	discount := models.CollaborationTypeDiscount
	bogus := models.CollaborationType("Barter")
	jan, feb := models.NewDate(2025, 1, 10), models.NewDate(2025, 2, 1)

	tests := []struct {
		name       string
		terms      models.CollaborationTerms
		wantFields []string
	}{
		{
			name: "valid free stay",
			terms: models.CollaborationTerms{
				CollaborationType: &freeStay, FreeStayMinNights: ptr(2), FreeStayMaxNights: ptr(4), StayNights: ptr(3),
				PlatformDeliverables: instagramPost(1),
			},
		},
		{
			name:       "free stay without nights",
			terms:      models.CollaborationTerms{CollaborationType: &freeStay, PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"free_stay_min_nights", "free_stay_max_nights"},
		},
		{
			name: "free stay with inverted range",
			terms: models.CollaborationTerms{
				CollaborationType: &freeStay, FreeStayMinNights: ptr(5), FreeStayMaxNights: ptr(2),
				PlatformDeliverables: instagramPost(1),
			},
			wantFields: []string{"free_stay_max_nights"},
		},
		{
			name: "stay nights outside range",
			terms: models.CollaborationTerms{
				CollaborationType: &freeStay, FreeStayMinNights: ptr(2), FreeStayMaxNights: ptr(3), StayNights: ptr(7),
				PlatformDeliverables: instagramPost(1),
			},
			wantFields: []string{"stay_nights"},
		},
		{
			name:       "paid requires positive amount",
			terms:      models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(0.0), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"paid_amount"},
		},
		{
			name:       "paid amount below a cent",
			terms:      models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(0.001), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"paid_amount"},
		},
		{
			name:       "paid amount beyond column precision",
			terms:      models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(1e12), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"paid_amount"},
		},
		{
			name:       "paid amount with three decimals",
			terms:      models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(19.999), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"paid_amount"},
		},
		{
			name:  "paid amount at the upper bound",
			terms: models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(99999999.99), PlatformDeliverables: instagramPost(1)},
		},
		{
			name:  "paid amount in cents",
			terms: models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(1234.56), PlatformDeliverables: instagramPost(1)},
		},
		{
			name: "paid with discount field",
			terms: models.CollaborationTerms{
				CollaborationType: &paid, PaidAmount: ptr(10.0), DiscountPercentage: ptr(10),
				PlatformDeliverables: instagramPost(1),
			},
			wantFields: []string{"discount_percentage"},
		},
		{
			name:       "discount out of range",
			terms:      models.CollaborationTerms{CollaborationType: &discount, DiscountPercentage: ptr(120), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"discount_percentage"},
		},
		{
			name:       "unknown type",
			terms:      models.CollaborationTerms{CollaborationType: &bogus, PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"collaboration_type"},
		},
		{
			name:       "untyped terms carry no type fields",
			terms:      models.CollaborationTerms{PaidAmount: ptr(10.0), PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"paid_amount"},
		},
		{
			name: "travel dates out of order",
			terms: models.CollaborationTerms{
				TravelDateFrom: &feb, TravelDateTo: &jan, PlatformDeliverables: instagramPost(1),
			},
			wantFields: []string{"travel_date_to"},
		},
		{
			name:       "bad month",
			terms:      models.CollaborationTerms{PreferredMonths: []string{"Jan", "January"}, PlatformDeliverables: instagramPost(1)},
			wantFields: []string{"preferred_months[1]"},
		},
		{
			name:       "missing deliverables",
			terms:      models.CollaborationTerms{},
			wantFields: []string{"platform_deliverables"},
		},
		{
			name:       "zero quantity",
			terms:      models.CollaborationTerms{PlatformDeliverables: instagramPost(0)},
			wantFields: []string{"platform_deliverables[0].deliverables[0].quantity"},
		},
		{
			name: "unknown platform",
			terms: models.CollaborationTerms{PlatformDeliverables: models.PlatformDeliverablesList{
				{Platform: "MySpace", Deliverables: []models.DeliverableSpec{{Type: "Post", Quantity: 1}}},
			}},
			wantFields: []string{"platform_deliverables[0].platform"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTerms(tt.terms, false)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.wantFields, fieldNames(t, err))
		})
	}
}

func TestValidateTermsRequireType(t *testing.T) {
	err := ValidateTerms(models.CollaborationTerms{PlatformDeliverables: instagramPost(1)}, true)
	assert.Equal(t, []string{"collaboration_type"}, fieldNames(t, err))
}

func TestApplyDoesNotAliasPatch(t *testing.T) {
	months := []string{"Mar"}
	patch := TermsPatch{PreferredMonths: months, PlatformDeliverables: instagramPost(3)}
	terms := patch.Terms()

	months[0] = "Apr"
	patch.PlatformDeliverables[0].Deliverables[0].Quantity = 9

	assert.Equal(t, "Mar", terms.PreferredMonths[0])
	assert.Equal(t, 3, terms.PlatformDeliverables[0].Deliverables[0].Quantity)
}

func TestApplyEmptyMonthsClears(t *testing.T) {
	current := models.CollaborationTerms{PreferredMonths: []string{"Jan"}, PlatformDeliverables: instagramPost(1)}
	next := TermsPatch{PreferredMonths: []string{}}.Apply(current)
	assert.Nil(t, next.PreferredMonths)
	assert.Equal(t, []string{"Jan"}, []string(current.PreferredMonths))
}

func TestPaidAmountMessages(t *testing.T) {
	paid := models.CollaborationTypePaid
	for amount, want := range map[float64]string{
		0.001: "paid_amount must have at most two decimal places",
		1e12:  "paid_amount must be at most 99999999.99",
	} {
		err := ValidateTerms(models.CollaborationTerms{CollaborationType: &paid, PaidAmount: ptr(amount), PlatformDeliverables: instagramPost(1)}, true)
		require.Error(t, err)
		fields := apperror.From(err).Details["fields"].([]apperror.FieldError)
		require.Len(t, fields, 1)
		assert.Equal(t, want, fields[0].Message)
	}
}

func TestApplyClearRemovesOptionalTerms(t *testing.T) {
	from, to := models.NewDate(2025, 3, 1), models.NewDate(2025, 3, 9)
	current := models.CollaborationTerms{
		StayNights:           ptr(3),
		TravelDateFrom:       &from,
		TravelDateTo:         &to,
		PreferredMonths:      []string{"Mar"},
		PlatformDeliverables: instagramPost(1),
	}
	patch := TermsPatch{Clear: []string{ClearStayNights, ClearTravelDateFrom, ClearTravelDateTo, ClearPreferredMonths}}
	require.NoError(t, patch.ValidateClear())
	assert.False(t, patch.IsEmpty())

	next := patch.Apply(current)
	assert.Nil(t, next.StayNights)
	assert.Nil(t, next.TravelDateFrom)
	assert.Nil(t, next.TravelDateTo)
	assert.Nil(t, next.PreferredMonths)
	assert.Equal(t, 3, *current.StayNights)
	assert.Equal(t, current.PlatformDeliverables, next.PlatformDeliverables)
}

func TestValidateClear(t *testing.T) {
	assert.ElementsMatch(t, []string{"clear[0]"}, fieldNames(t, TermsPatch{Clear: []string{"paid_amount"}}.ValidateClear()))
	assert.ElementsMatch(t, []string{"clear[1]"}, fieldNames(t, TermsPatch{
		StayNights: ptr(2),
		Clear:      []string{ClearPreferredMonths, ClearStayNights},
	}.ValidateClear()))
	assert.NoError(t, TermsPatch{PreferredMonths: []string{}, Clear: []string{ClearPreferredMonths}}.ValidateClear())
}
