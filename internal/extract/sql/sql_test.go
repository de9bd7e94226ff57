package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/model"
)

func TestParse_SimpleSelect(t *testing.T) {
	a := Parse(`SELECT id, name FROM users WHERE id = #{id}`, model.SQLSelect)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, "users", a.Tables[0].Name)
	assert.Len(t, a.Columns, 2)
	assert.Len(t, a.WhereConditions, 1)
	require.Len(t, a.Parameters, 1)
	assert.Equal(t, "id", a.Parameters[0].Name)
	assert.Equal(t, model.ParamSimple, a.Parameters[0].Kind)
	assert.Equal(t, "simple", a.ComplexityBucket)
}

func TestParse_SelectWithJoinAndAlias(t *testing.T) {
	a := Parse(`
		SELECT o.id, u.name
		FROM orders AS o
		INNER JOIN users u ON o.user_id = u.id
		WHERE o.status = #{status}
		ORDER BY o.created_at DESC
	`, model.SQLSelect)

	var names []string
	for _, tbl := range a.Tables {
		names = append(names, tbl.Name)
	}
	assert.Contains(t, names, "orders")
	assert.Contains(t, names, "users")
	require.Len(t, a.Joins, 1)
	assert.Equal(t, "INNER", a.Joins[0].Type)
	assert.Equal(t, "users", a.Joins[0].Table)
	require.Len(t, a.OrderBy, 1)
	assert.Contains(t, a.OrderBy[0], "DESC")
}

func TestParse_SelectStar(t *testing.T) {
	a := Parse(`SELECT * FROM accounts`, model.SQLSelect)
	require.Len(t, a.Columns, 1)
	assert.Equal(t, "*", a.Columns[0].Name)
}

func TestParse_NestedParameter(t *testing.T) {
	a := Parse(`SELECT * FROM users WHERE name = #{filter.name}`, model.SQLSelect)
	require.Len(t, a.Parameters, 1)
	assert.Equal(t, "filter.name", a.Parameters[0].Name)
	assert.Equal(t, model.ParamNested, a.Parameters[0].Kind)
}

func TestParse_Insert(t *testing.T) {
	a := Parse(`INSERT INTO users (name, email) VALUES (#{name}, #{email})`, model.SQLInsert)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, "users", a.Tables[0].Name)
	require.Len(t, a.Columns, 2)
	assert.Equal(t, "name", a.Columns[0].Name)
	assert.Equal(t, "email", a.Columns[1].Name)
}

func TestParse_Update(t *testing.T) {
	a := Parse(`UPDATE users SET name = #{name}, email = #{email} WHERE id = #{id}`, model.SQLUpdate)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, "users", a.Tables[0].Name)
	require.Len(t, a.Columns, 2)
	assert.Len(t, a.WhereConditions, 1)
}

func TestParse_Delete(t *testing.T) {
	a := Parse(`DELETE FROM sessions WHERE expires_at < #{now}`, model.SQLDelete)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, "sessions", a.Tables[0].Name)
	assert.Len(t, a.WhereConditions, 1)
}

func TestParse_Subquery(t *testing.T) {
	a := Parse(`SELECT id FROM orders WHERE user_id IN (SELECT id FROM users WHERE active = 1)`, model.SQLSelect)
	assert.Len(t, a.Subqueries, 1)
}

func TestParse_CommentsStripped(t *testing.T) {
	a := Parse(`
		-- pick the active user
		SELECT id FROM users /* block comment */ WHERE active = 1
	`, model.SQLSelect)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, "users", a.Tables[0].Name)
}

func TestParse_EmptyInputYieldsZeroComplexity(t *testing.T) {
	a := Parse("", model.SQLSelect)
	assert.Equal(t, 0, a.ComplexityScore)
	assert.Empty(t, a.Tables)
}

// TestComplexityBucket_Thresholds covers the bucket boundaries from spec §4.1.
func TestComplexityBucket_Thresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{1, "simple"},
		{3, "simple"},
		{4, "medium"},
		{7, "medium"},
		{8, "complex"},
		{12, "complex"},
		{13, "very_complex"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, complexityBucket(tc.score))
	}
}

func TestParse_GroupByAndHaving(t *testing.T) {
	a := Parse(`SELECT department, COUNT(*) FROM employees GROUP BY department HAVING COUNT(*) > 5`, model.SQLSelect)
	require.Len(t, a.GroupBy, 1)
	assert.Equal(t, "department", a.GroupBy[0])
	require.Len(t, a.Having, 1)
}
