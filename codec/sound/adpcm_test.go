package sound

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestADPCMStepFromZeroState(t *testing.T) {
	var st adpcmState
	sample := st.step(0x4)
	assert.Equal(t, sample, int16(7))
	// The table-driven index update gives stepIndex 2 here (indexTable[4] == 2).
	assert.Equal(t, st.stepIndex, 2)
}

func TestDecodeADPCMMonoProducesSixteenBitPCM(t *testing.T) {
	out := decodeADPCM([]byte{0x44, 0x00}, 1)
	assert.Equal(t, len(out), 8) // 2 bytes in -> 4 nibbles -> 4 samples -> 8 bytes
}

func TestDecodeADPCMStereoInterleavesChannels(t *testing.T) {
	out := decodeADPCM([]byte{0x40}, 2)
	assert.Equal(t, len(out), 4) // 1 byte -> 1 left + 1 right sample -> 4 bytes
}
