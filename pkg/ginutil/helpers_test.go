package ginutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string, params gin.Params) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	c.Params = params
	return c
}

func TestQueryInt(t *testing.T) {
	c := testContext("/?limit=25&bad=x", nil)
	assert.Equal(t, 25, QueryInt(c, "limit", 10))
	assert.Equal(t, 10, QueryInt(c, "bad", 10))
	assert.Equal(t, 10, QueryInt(c, "missing", 10))
}

func TestQueryBool(t *testing.T) {
	c := testContext("/?actors=1&raw=yes", nil)
	assert.True(t, QueryBool(c, "actors"))
	assert.False(t, QueryBool(c, "raw"))
	assert.False(t, QueryBool(c, "missing"))
}

func TestParamUint64(t *testing.T) {
	c := testContext("/?from=3", gin.Params{{Key: "id", Value: "42"}, {Key: "zero", Value: "0"}, {Key: "neg", Value: "-1"}})

	id, err := ParamUint64(c, "id")
	assert.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = ParamUint64(c, "zero")
	assert.Error(t, err)
	_, err = ParamUint64(c, "neg")
	assert.Error(t, err)

	from, err := QueryUint64(c, "from")
	assert.NoError(t, err)
	assert.EqualValues(t, 3, from)
}
