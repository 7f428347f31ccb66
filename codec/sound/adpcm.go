package sound

import "encoding/binary"

var stepTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

var indexTable = [16]int{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

type adpcmState struct {
	last      int16
	stepIndex int
}

// step decodes one 4-bit nibble against the state, returning the decoded
// sample and advancing last/stepIndex.
func (st *adpcmState) step(n byte) int16 {
	stepVal := stepTable[st.stepIndex]
	diff := ((2*int(n&7) + 1) * stepVal) >> 3
	if n&8 != 0 {
		diff = -diff
	}
	sample := int(st.last) + diff
	if sample > 32767 {
		sample = 32767
	} else if sample < -32768 {
		sample = -32768
	}
	st.last = int16(sample)

	st.stepIndex += indexTable[n]
	if st.stepIndex < 0 {
		st.stepIndex = 0
	} else if st.stepIndex > 88 {
		st.stepIndex = 88
	}
	return st.last
}

// decodeADPCM expands a nibble-packed IMA-ADPCM byte stream into 16-bit
// signed LE PCM. Stereo input drives two independent decoder states (one
// per nibble within each byte); mono drives a single shared state for
// both nibbles.
func decodeADPCM(data []byte, channels int) []byte {
	out := make([]byte, 0, len(data)*4)

	if channels == 2 {
		var left, right adpcmState
		for _, b := range data {
			s := left.step(b >> 4)
			out = appendSample(out, s)
			s = right.step(b & 0x0F)
			out = appendSample(out, s)
		}
		return out
	}

	var st adpcmState
	for _, b := range data {
		out = appendSample(out, st.step(b>>4))
		out = appendSample(out, st.step(b&0x0F))
	}
	return out
}

func appendSample(out []byte, s int16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(s))
	return append(out, tmp[:]...)
}
