package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queuePayload struct {
	Scopes []string `binding:"omitempty,dive,oneOf=createdBy templatePrefix to"`
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	request, err := http.NewRequest("GET", "/", nil)
	require.NoError(t, err)
	ctx.Request = request

	err = ctx.ShouldBind(&queuePayload{Scopes: []string{"createdBy", "to"}})
	assert.NoError(t, err)

	err = ctx.ShouldBind(&queuePayload{})
	assert.NoError(t, err)

	err = ctx.ShouldBind(&queuePayload{Scopes: []string{"somethingElse"}})
	assert.Error(t, err)
	assert.Equal(t, "Key: 'queuePayload.Scopes[0]' Error:Field validation for 'Scopes[0]' failed on the 'oneOf' tag", err.Error())
}
