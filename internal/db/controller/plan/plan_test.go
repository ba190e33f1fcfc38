package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
	"github.com/PrepDesk/PrepDesk/internal/db/dbtest"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

func ptr[T any](v T) *T { return &v }

func studentStart() *Input {
	return &Input{
		Key:                    "STUDENT_START",
		Label:                  "Student Start",
		Type:                   models.PlanTypeStudent,
		MonthlyPriceCents:      ptr(int64(990)),
		YearlyPriceCents:       ptr(int64(9900)),
		IsActive:               true,
		ProviderPriceIDMonthly: ptr("price_m"),
		ProviderPriceIDYearly:  ptr("price_y"),
		MonthlyCredits:         100,
	}
}

func TestValidatePurchasable(t *testing.T) {
	testCases := []struct {
		name string
		plan models.Plan
		err  error
	}{
		{name: "no price", plan: models.Plan{}, err: ErrNoPrice},
		{
			name: "monthly without provider id",
			plan: models.Plan{MonthlyPriceCents: ptr(int64(1))},
			err:  ErrMissingProviderPrice,
		},
		{
			name: "yearly with empty provider id",
			plan: models.Plan{YearlyPriceCents: ptr(int64(1)), ProviderPriceIDYearly: ptr("")},
			err:  ErrMissingProviderPrice,
		},
		{
			name: "monthly only",
			plan: models.Plan{MonthlyPriceCents: ptr(int64(1)), ProviderPriceIDMonthly: ptr("price_m")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePurchasable(&tc.plan)
			if tc.err == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tc.err)
			require.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestPriceIDFor(t *testing.T) {
	p := &models.Plan{MonthlyPriceCents: ptr(int64(990)), ProviderPriceIDYearly: ptr("price_y")}

	id, err := PriceIDFor(p, models.IntervalYear)
	require.NoError(t, err)
	assert.Equal(t, "price_y", id)

	_, err = PriceIDFor(p, models.IntervalMonth)
	require.ErrorIs(t, err, ErrPriceNotConfigured)
	assert.Equal(t, CodePriceNotConfigured, apperror.Code(err))

	_, err = PriceIDFor(p, "WEEK")
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateGetList(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	created, err := Create(ctx, db, studentStart())
	require.NoError(t, err)
	assert.Equal(t, "EUR", created.Currency)

	_, err = Create(ctx, db, studentStart())
	require.ErrorIs(t, err, ErrPlanExists)

	draft := &Input{Key: "SCHOOL", Label: "School", Type: models.PlanTypeSchool, MaxStudents: 500}
	_, err = Create(ctx, db, draft)
	require.NoError(t, err, "inactive plans need no price")

	_, err = Create(ctx, db, &Input{Key: "X", Label: "X", Type: "guild"})
	require.ErrorIs(t, err, apperror.ErrValidation)

	broken := studentStart()
	broken.Key = "BROKEN"
	broken.ProviderPriceIDYearly = nil
	_, err = Create(ctx, db, broken)
	require.ErrorIs(t, err, ErrMissingProviderPrice)

	got, err := Get(ctx, db, "STUDENT_START")
	require.NoError(t, err)
	assert.Equal(t, int64(990), *got.MonthlyPriceCents)
	assert.Equal(t, 100, got.MonthlyCredits)

	_, err = GetActive(ctx, db, "SCHOOL")
	require.ErrorIs(t, err, ErrPlanNotFound)
	assert.Equal(t, CodePlanNotFound, apperror.Code(err))

	_, err = Get(ctx, db, "")
	require.ErrorIs(t, err, ErrPlanKeyEmpty)

	active, err := List(ctx, db, false)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := List(ctx, db, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateAndSetActive(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	_, err := Create(ctx, db, studentStart())
	require.NoError(t, err)

	in := studentStart()
	in.Key = "IGNORED"
	in.Label = "Student Start+"
	in.UnlimitedCredits = true

	updated, err := Update(ctx, db, "STUDENT_START", in)
	require.NoError(t, err)
	assert.Equal(t, "STUDENT_START", updated.Key)
	assert.Equal(t, "Student Start+", updated.Label)
	assert.True(t, updated.UnlimitedCredits)

	_, err = Update(ctx, db, "NOPE", studentStart())
	require.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, SetActive(ctx, db, "STUDENT_START", false))

	_, err = GetActive(ctx, db, "STUDENT_START")
	require.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, SetActive(ctx, db, "STUDENT_START", true))

	_, err = Create(ctx, db, &Input{Key: "DRAFT", Label: "Draft", Type: models.PlanTypeTeacher})
	require.NoError(t, err)
	require.ErrorIs(t, SetActive(ctx, db, "DRAFT", true), ErrNoPrice)
}

func TestFindByProviderPrice(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	_, err := Create(ctx, db, studentStart())
	require.NoError(t, err)

	p, err := FindByProviderPrice(ctx, db, "price_y")
	require.NoError(t, err)
	assert.Equal(t, "STUDENT_START", p.Key)

	_, err = FindByProviderPrice(ctx, db, "price_unknown")
	require.ErrorIs(t, err, ErrPlanNotFound)

	_, err = FindByProviderPrice(ctx, db, "")
	require.ErrorIs(t, err, ErrPlanNotFound)
}
