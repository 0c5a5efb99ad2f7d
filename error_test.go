package metsalto_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tbruckner/metsalto"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := metsalto.Errorf(metsalto.ENOTFOUND, "manifest %q not found", "mets.xml")

	assert.Equal(t, metsalto.ENOTFOUND, metsalto.ErrorCode(err))
	assert.Equal(t, "manifest \"mets.xml\" not found", metsalto.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, metsalto.ErrorCode(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, metsalto.EINTERNAL, metsalto.ErrorCode(errors.New("boom")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, metsalto.ErrorMessage(nil))
}

func TestErrorMessage_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Internal error.", metsalto.ErrorMessage(errors.New("boom")))
}
