package ginutil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// QueryBool treats "1", "true" and friends as true; anything else is false
func QueryBool(c *gin.Context, key string) bool {
	b, err := strconv.ParseBool(c.Query(key))
	return err == nil && b
}

// ParamUint64 extracts a positive id from path parameters
func ParamUint64(c *gin.Context, key string) (uint64, error) {
	return parseID(key, c.Param(key))
}

// QueryUint64 extracts a positive id from query parameters
func QueryUint64(c *gin.Context, key string) (uint64, error) {
	return parseID(key, c.Query(key))
}

func parseID(key, raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return id, nil
}
