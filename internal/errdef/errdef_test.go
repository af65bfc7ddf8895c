package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/harryhq/mail-manager/internal/errdef"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := map[string]struct {
		new func(format string, a ...any) error
		is  func(err error) bool
	}{
		"BadRequest":           {new: errdef.NewBadRequest, is: errdef.IsBadRequest},
		"Conflict":             {new: errdef.NewConflict, is: errdef.IsConflict},
		"Duplicated":           {new: errdef.NewDuplicated, is: errdef.IsDuplicated},
		"Forbidden":            {new: errdef.NewForbidden, is: errdef.IsForbidden},
		"NotFound":             {new: errdef.NewNotFound, is: errdef.IsNotFound},
		"Unauthorized":         {new: errdef.NewUnauthorized, is: errdef.IsUnauthorized},
		"UnsupportedMediaType": {new: errdef.NewUnsupportedMediaType, is: errdef.IsUnsupportedMediaType},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, test.is(test.new("some error")))
			assert.False(t, test.is(errors.New("some error")))

			for otherName, other := range tests {
				if otherName == name {
					continue
				}
				assert.False(t, test.is(other.new("some error")), "a %s error must not be %s", otherName, name)
			}
		})
	}
}

func TestNewFormatsTheMessage(t *testing.T) {
	err := errdef.NewNotFound("message %d not found", 42)

	assert.EqualError(t, err, "message 42 not found")
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("finding attachment: %w", errdef.NewNotFound("message %d not found", 42))

	assert.True(t, errdef.IsNotFound(err))
	assert.False(t, errdef.IsConflict(err))
}
