// Command doa-client subscribes to the CFR group stream and prints a
// direction-of-arrival estimate per group, derived from the mean phase
// difference between adjacent channels.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"net/url"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8080", "server address")
	spacing := flag.Float64("spacing", 0.5, "antenna spacing in wavelengths")
	count := flag.Int("n", 0, "number of groups to read (0 = forever)")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	for i := 0; *count == 0 || i < *count; i++ {
		msgType, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		cfrs, err := decodeGroup(msg)
		if err != nil {
			log.Printf("Bad group frame: %v", err)
			continue
		}
		delta := meanPhaseDelta(cfrs)
		bearing := bearingDeg(delta, *spacing)
		fmt.Printf("group %4d | channels %d | phase delta %+.4f rad | bearing %+7.2f deg\n",
			i, len(cfrs), delta, bearing)
	}
}

// decodeGroup parses the binary group frame: channel count, samples per
// channel, then little-endian float32 I/Q pairs per channel.
func decodeGroup(buf []byte) ([][]complex64, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("frame too short: %d bytes", len(buf))
	}
	channels := int(binary.LittleEndian.Uint32(buf[0:4]))
	perChannel := int(binary.LittleEndian.Uint32(buf[4:8]))
	want := 8 + channels*perChannel*8
	if len(buf) != want {
		return nil, fmt.Errorf("frame length %d, want %d", len(buf), want)
	}

	cfrs := make([][]complex64, channels)
	off := 8
	for ch := range cfrs {
		cfrs[ch] = make([]complex64, perChannel)
		for k := range cfrs[ch] {
			re := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))
			cfrs[ch][k] = complex(re, im)
			off += 8
		}
	}
	return cfrs, nil
}

// meanPhaseDelta averages the per-subcarrier phase difference between
// adjacent channels over the whole group.
func meanPhaseDelta(cfrs [][]complex64) float64 {
	if len(cfrs) < 2 {
		return 0
	}
	var sum complex128
	for ch := 1; ch < len(cfrs); ch++ {
		for k := range cfrs[ch] {
			a := complex128(cfrs[ch][k])
			b := complex128(cfrs[ch-1][k])
			if cmplx.Abs(a) == 0 || cmplx.Abs(b) == 0 {
				continue
			}
			sum += a * cmplx.Conj(b)
		}
	}
	return cmplx.Phase(sum)
}

// bearingDeg converts a phase delta into a broadside bearing for a
// uniform linear array with the given element spacing.
func bearingDeg(delta, spacing float64) float64 {
	arg := delta / (2 * math.Pi * spacing)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}
	return math.Asin(arg) * 180 / math.Pi
}
