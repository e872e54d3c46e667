package link

import (
	"testing"

	"github.com/anjlabs/anj/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterWriterExactBytes(t *testing.T) {
	w := NewRegisterWriter()
	require.NoError(t, w.WriteEntry(path.MustNew(3), "1.1"))
	require.NoError(t, w.WriteEntry(path.MustNew(3, 0), ""))
	assert.Equal(t, "</3>;ver=1.1,</3/0>", string(w.Close()))
}

func TestRegisterWriterRejectsSecurityObject(t *testing.T) {
	w := NewRegisterWriter()
	err := w.WriteEntry(path.MustNew(0), "")
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}

func TestRegisterWriterRejectsOutOfOrder(t *testing.T) {
	w := NewRegisterWriter()
	require.NoError(t, w.WriteEntry(path.MustNew(3, 1), ""))
	err := w.WriteEntry(path.MustNew(3, 0), "")
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}

func TestDiscoverWriterWithDimAndAttrs(t *testing.T) {
	depth := 2
	w, err := NewDiscoverWriter(path.MustNew(3, 0), &depth)
	require.NoError(t, err)

	dim := uint16(2)
	pmin := uint32(10)
	pmax := uint32(60)
	require.NoError(t, w.WriteEntry(path.MustNew(3, 0, 7), &AttrNotification{MinPeriod: &pmin, MaxPeriod: &pmax}, "", &dim))
	require.NoError(t, w.WriteEntry(path.MustNew(3, 0, 7, 0), nil, "", nil))
	require.NoError(t, w.WriteEntry(path.MustNew(3, 0, 7, 1), nil, "", nil))

	assert.Equal(t, "</3/0/7>;dim=2;pmin=10;pmax=60,</3/0/7/0>,</3/0/7/1>", string(w.Close()))
}

func TestDiscoverWriterRejectsBeyondDepth(t *testing.T) {
	depth := 1
	w, err := NewDiscoverWriter(path.MustNew(3), &depth)
	require.NoError(t, err)
	err = w.WriteEntry(path.MustNew(3, 0, 7), nil, "", nil)
	assert.Equal(t, ErrWarningDepth, err)
}

func TestBootstrapDiscoverWriterSecurityWithURI(t *testing.T) {
	w, err := NewBootstrapDiscoverWriter(path.Root())
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(path.MustNew(0), "1.1", nil, ""))
	require.NoError(t, w.WriteEntry(path.MustNew(0, 0), "", nil, "coap://host"))

	assert.Equal(t, `</>;lwm2m=1.1,</0>;ver=1.1,</0/0>;uri="coap://host"`, string(w.Close()))
}

func TestBootstrapDiscoverWriterRequiresSsidOnServer(t *testing.T) {
	w, err := NewBootstrapDiscoverWriter(path.Root())
	require.NoError(t, err)
	err = w.WriteEntry(path.MustNew(1, 0), "", nil, "")
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}

func TestRegisterWriterRejectsMalformedVersion(t *testing.T) {
	w := NewRegisterWriter()
	err := w.WriteEntry(path.MustNew(3), "v1")
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}

func TestDiscoverWriterRejectsMalformedVersion(t *testing.T) {
	w, err := NewDiscoverWriter(path.MustNew(3), nil)
	require.NoError(t, err)
	err = w.WriteEntry(path.MustNew(3), nil, "1", nil)
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}

func TestBootstrapDiscoverWriterRejectsMalformedVersion(t *testing.T) {
	w, err := NewBootstrapDiscoverWriter(path.Root())
	require.NoError(t, err)
	err = w.WriteEntry(path.MustNew(3), "1.1.1", nil, "")
	var iae *InputArgError
	assert.ErrorAs(t, err, &iae)
}
