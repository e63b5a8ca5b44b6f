package ierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewConfig(cause, "loading config")

	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "configuration error")
	assert.True(t, errors.Is(err, cause))
}

func TestConnectivityErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectivity(cause, "dial database")

	var ce *ConnectivityError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "connectivity error")
}

func TestQueryErrorCarriesSQL(t *testing.T) {
	cause := errors.New("syntax error")
	err := NewQuery(cause, "SELECT 1")

	var qe *QueryError
	require := assert.New(t)
	require.True(errors.As(err, &qe))
	require.Equal("SELECT 1", qe.SQL)
	require.Contains(err.Error(), "query error")
}
