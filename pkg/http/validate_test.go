package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type horizonRequest struct {
	Commodity string `query:"commodity" validate:"required"`
	Days      int    `query:"days" default:"7" validate:"gte=1,lte=90"`
}

func bindQuery(t *testing.T, query string) (*horizonRequest, []ValidationError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	out := &horizonRequest{}
	return out, ReadAndValidateRequest(c, out)
}

func TestReadAndValidateRequest(t *testing.T) {
	req, errs := bindQuery(t, "commodity=Onion")
	require.Nil(t, errs)
	assert.Equal(t, "Onion", req.Commodity)
	assert.Equal(t, 7, req.Days)

	_, errs = bindQuery(t, "days=120")
	require.Len(t, errs, 2)
	assert.Equal(t, ValidationError{Code: "ERR_REQUIRED", Field: "commodity", Message: "commodity is required"}, errs[0])
	assert.Equal(t, "ERR_LTE", errs[1].Code)
	assert.Equal(t, "days", errs[1].Field)
	assert.Equal(t, "days must be at most 90", errs[1].Message)
	assert.Equal(t, "90", errs[1].Params["max"])

	_, errs = bindQuery(t, "commodity=Onion&days=abc")
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}
