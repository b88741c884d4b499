package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/utils/tests"
)

func buildSQL(t *testing.T, f *CommonFilter) (string, []any) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, nil)
	require.NoError(t, err)
	stmt := &gorm.Statement{DB: db, Clauses: map[string]clause.Clause{}}
	f.Build(stmt)
	return stmt.SQL.String(), stmt.Vars
}

func TestCommonFilter_Build(t *testing.T) {
	cases := []struct {
		name    string
		filter  *CommonFilter
		wantSQL string
		wantVar []any
	}{
		{
			name:    "eq",
			filter:  &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"issued"}},
			wantSQL: "`status` = ?",
			wantVar: []any{"issued"},
		},
		{
			name:    "not eq",
			filter:  &CommonFilter{Field: "currency", Operator: CommonFilterOperatorNotEq, Values: []any{"eur"}},
			wantSQL: "`currency` <> ?",
			wantVar: []any{"eur"},
		},
		{
			name:    "gte",
			filter:  &CommonFilter{Field: "total", Operator: CommonFilterOperatorGte, Values: []any{1000}},
			wantSQL: "`total` >= ?",
			wantVar: []any{1000},
		},
		{
			name:    "range",
			filter:  &CommonFilter{Field: "total", Operator: CommonFilterOperatorRange, Values: []any{1000, 5000}},
			wantSQL: "(`total` >= ? AND `total` <= ?)",
			wantVar: []any{1000, 5000},
		},
		{
			name:    "in",
			filter:  &CommonFilter{Field: "customer_id", Operator: CommonFilterOperatorIn, Values: []any{"cus_1", "cus_2"}},
			wantSQL: "`customer_id` IN (?,?)",
			wantVar: []any{"cus_1", "cus_2"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, vars := buildSQL(t, tc.filter)
			require.Equal(t, tc.wantSQL, sql)
			require.Equal(t, tc.wantVar, vars)
		})
	}
}

func TestCommonFilter_EmptyValuesProduceNothing(t *testing.T) {
	sql, vars := buildSQL(t, &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq})
	require.Empty(t, sql)
	require.Empty(t, vars)
}

func TestCommonFilter_RangeRequiresTwoValues(t *testing.T) {
	sql, _ := buildSQL(t, &CommonFilter{Field: "total", Operator: CommonFilterOperatorRange, Values: []any{1000}})
	require.Empty(t, sql)
}
