package display

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemScaleFactor(t *testing.T) {
	scale, err := System{}.ScaleFactor()
	if runtime.GOOS != "windows" {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	if err != nil {
		t.Skipf("no DPI query on this host: %v", err)
	}
	assert.GreaterOrEqual(t, scale, 1.0)
}
