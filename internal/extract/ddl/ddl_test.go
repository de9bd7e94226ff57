package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDDL = `
-- Database: orders_db
-- Environment: production

CREATE TABLE users (
    id BIGINT PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
    CONSTRAINT chk_email CHECK (email <> '')
);

CREATE TABLE orders (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    total NUMERIC(10,2) DEFAULT 0
);

CREATE UNIQUE INDEX idx_users_email ON users (email);
CREATE INDEX idx_orders_user_id ON orders (user_id);

ALTER TABLE orders ADD CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id);
`

func TestParse_DatabaseNameAndEnvironmentFromComments(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")
	assert.Equal(t, "orders_db", r.Database.Name)
	assert.Equal(t, "production", r.Database.Environment)
}

func TestParse_Tables(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")
	require.Len(t, r.Tables, 2)
	names := []string{r.Tables[0].Name, r.Tables[1].Name}
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "orders")
}

func TestParse_Columns(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")

	var userCols []string
	for _, c := range r.Columns {
		if c.TableName == "users" {
			userCols = append(userCols, c.Name)
		}
	}
	assert.ElementsMatch(t, []string{"id", "email", "created_at"}, userCols)

	var emailCol, idCol bool
	for _, c := range r.Columns {
		if c.TableName == "users" && c.Name == "email" {
			emailCol = true
			assert.False(t, c.Nullable)
			assert.True(t, c.Unique)
			assert.Equal(t, "VARCHAR(255)", c.DataType)
		}
		if c.TableName == "users" && c.Name == "id" {
			idCol = true
			assert.True(t, c.PrimaryKey)
		}
	}
	assert.True(t, emailCol)
	assert.True(t, idCol)
}

func TestParse_NumericColumnNotSplitOnInnerComma(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")
	var total *string
	for _, c := range r.Columns {
		if c.TableName == "orders" && c.Name == "total" {
			dt := c.DataType
			total = &dt
		}
	}
	require.NotNil(t, total)
	// The inner comma in NUMERIC(10,2) must not be treated as a column
	// separator (depth-aware split) or truncate the captured type.
	assert.Equal(t, "NUMERIC(10,2)", *total)
}

func TestParse_Indexes(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")
	require.Len(t, r.Indexes, 2)

	var uniqueIdx *struct{ Type, Table string }
	for _, idx := range r.Indexes {
		if idx.Name == "idx_users_email" {
			uniqueIdx = &struct{ Type, Table string }{idx.Type, idx.TableName}
		}
	}
	require.NotNil(t, uniqueIdx)
	assert.Equal(t, "UNIQUE", uniqueIdx.Type)
	assert.Equal(t, "users", uniqueIdx.Table)
}

func TestParse_Constraints(t *testing.T) {
	r := Parse(sampleDDL, "schema.sql")
	require.NotEmpty(t, r.Constraints)

	var foundFK, foundCheck bool
	for _, c := range r.Constraints {
		if c.Name == "fk_orders_user" {
			foundFK = true
			assert.Equal(t, "FOREIGN KEY", c.Type)
			assert.Equal(t, "orders", c.TableName)
		}
		if c.Name == "chk_email" {
			foundCheck = true
			assert.Equal(t, "CHECK", c.Type)
			assert.Equal(t, "users", c.TableName)
		}
	}
	assert.True(t, foundFK)
	assert.True(t, foundCheck)
}

func TestParse_NoCreateTableYieldsEmptyResult(t *testing.T) {
	r := Parse("SELECT 1;", "empty.sql")
	assert.Empty(t, r.Tables)
	assert.Empty(t, r.Columns)
}
