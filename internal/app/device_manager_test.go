package app

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/affect/internal/audio"
)

func fakeDevices(devices []audio.DeviceInfo, err error) *DeviceManager {
	return &DeviceManager{
		list: func() ([]audio.DeviceInfo, error) { return devices, err },
		out:  &bytes.Buffer{},
	}
}

func TestDeviceManager_SelectDevice(t *testing.T) {
	dm := fakeDevices([]audio.DeviceInfo{
		{ID: "capture-0", Name: "Webcam"},
		{ID: "capture-1", Name: "Headset Microphone", IsDefault: true},
	}, nil)

	d, err := dm.SelectDevice("")
	require.NoError(t, err)
	assert.Equal(t, "capture-1", d.ID)

	d, err = dm.SelectDevice("webcam")
	require.NoError(t, err)
	assert.Equal(t, "capture-0", d.ID)

	_, err = dm.SelectDevice("speaker")
	assert.ErrorContains(t, err, "invalid audio device")
}

func TestDeviceManager_SelectDevice_Errors(t *testing.T) {
	_, err := fakeDevices(nil, errors.New("no backend")).SelectDevice("")
	assert.ErrorContains(t, err, "no backend")

	_, err = fakeDevices(nil, nil).SelectDevice("")
	assert.ErrorContains(t, err, "no capture devices")
}

func TestDeviceManager_ListDevices(t *testing.T) {
	dm := fakeDevices([]audio.DeviceInfo{
		{ID: "capture-0", Name: "Headset Microphone", IsDefault: true},
	}, nil)
	var out bytes.Buffer
	dm.out = &out

	require.NoError(t, dm.ListDevices())
	assert.Contains(t, out.String(), "1. Headset Microphone [DEFAULT]")
	assert.Contains(t, out.String(), `affect-cli --device "Headset Microphone"`)

	empty := fakeDevices(nil, nil)
	assert.Error(t, empty.ListDevices())
}
