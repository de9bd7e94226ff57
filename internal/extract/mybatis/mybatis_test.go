package mybatis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/model"
)

const sampleMapperXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE mapper PUBLIC "-//mybatis.org//DTD Mapper 3.0//EN" "http://mybatis.org/dtd/mybatis-3-mapper.dtd">
<mapper namespace="com.example.orders.mapper.OrderMapper">
  <resultMap id="OrderResult" type="com.example.orders.model.Order">
    <result property="id" column="order_id" jdbcType="BIGINT"/>
    <result property="userId" column="user_id" jdbcType="BIGINT"/>
  </resultMap>

  <select id="findById" parameterType="long" resultMap="OrderResult">
    SELECT order_id, user_id, status
    FROM orders
    WHERE order_id = #{id}
  </select>

  <insert id="insert" parameterType="com.example.orders.model.Order">
    INSERT INTO orders (user_id, status)
    VALUES (#{userId}, #{status})
  </insert>

  <update id="updateStatus">
    UPDATE orders
    <set>
      status = #{status}
    </set>
    WHERE order_id = #{id}
  </update>

  <delete id="deleteById">
    DELETE FROM orders WHERE order_id = #{id}
  </delete>
</mapper>
`

func TestParse_NamespaceAndMapperName(t *testing.T) {
	mapper, _, err := Parse([]byte(sampleMapperXML), "OrderMapper.xml")
	require.NoError(t, err)
	assert.Equal(t, "com.example.orders.mapper.OrderMapper", mapper.Namespace)
	assert.Equal(t, "OrderMapper", mapper.Name)
	assert.Equal(t, model.MapperXML, mapper.Type)
}

func TestParse_StatementsByTag(t *testing.T) {
	_, stmts, err := Parse([]byte(sampleMapperXML), "OrderMapper.xml")
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	byID := make(map[string]model.SqlStatement)
	for _, s := range stmts {
		byID[s.ID] = s
	}

	require.Contains(t, byID, "findById")
	assert.Equal(t, model.SQLSelect, byID["findById"].SQLType)
	assert.Equal(t, "OrderResult", byID["findById"].ResultMap)
	assert.Contains(t, byID["findById"].SQLContent, "FROM orders")

	require.Contains(t, byID, "insert")
	assert.Equal(t, model.SQLInsert, byID["insert"].SQLType)

	require.Contains(t, byID, "updateStatus")
	assert.Equal(t, model.SQLUpdate, byID["updateStatus"].SQLType)
	// dynamic-SQL <set> child contributes its text too (opaque concatenation).
	assert.Contains(t, byID["updateStatus"].SQLContent, "status = #{status}")

	require.Contains(t, byID, "deleteById")
	assert.Equal(t, model.SQLDelete, byID["deleteById"].SQLType)
}

func TestParseResultMaps(t *testing.T) {
	maps, err := ParseResultMaps([]byte(sampleMapperXML))
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "OrderResult", maps[0].ID)
	require.Len(t, maps[0].Properties, 2)
	assert.Equal(t, "order_id", maps[0].Properties[0].Column)
}

func TestParse_MalformedXMLReturnsParseError(t *testing.T) {
	_, _, err := Parse([]byte("<mapper namespace=\"x\"><select id=\"a\">"), "broken.xml")
	require.Error(t, err)
}

func TestParse_MapperNameFallsBackToFileNameWhenNamespaceEmpty(t *testing.T) {
	mapper, _, err := Parse([]byte(`<mapper><select id="x">SELECT 1</select></mapper>`), "LegacyDao.xml")
	require.NoError(t, err)
	assert.Equal(t, "LegacyDao", mapper.Name)
}
